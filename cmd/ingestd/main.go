// cmd/ingestd runs a single tenant ingestion job to completion and exits.
// It is designed to be invoked per-job (by a scheduler, queue consumer, or
// operator), not as a long-lived server: each invocation provisions its own
// admin connection pool and tenant session, matching the engine's
// stateless, per-invocation execution model end to end.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ingestio/enginecore/internal/config"
	"github.com/ingestio/enginecore/internal/dbrouter"
	"github.com/ingestio/enginecore/internal/events"
	"github.com/ingestio/enginecore/internal/ingest"
	"github.com/ingestio/enginecore/internal/logging"
	"github.com/ingestio/enginecore/internal/model"
	"github.com/ingestio/enginecore/internal/provisioner"
	"github.com/ingestio/enginecore/internal/repository"
	"github.com/ingestio/enginecore/internal/telemetry"
	"github.com/ingestio/enginecore/internal/tenantclient"
	"github.com/ingestio/enginecore/internal/tenantid"
)

const dateLayout = "2006-01-02"

func main() {
	tenantFlag := flag.String("tenant-id", "", "tenant identifier to ingest for (required)")
	jobIDFlag := flag.String("job-id", "", "caller-chosen job id, unique per tenant (generated if omitted)")
	startFlag := flag.String("start", "", "start date, YYYY-MM-DD (required)")
	endFlag := flag.String("end", "", "end date, YYYY-MM-DD (required)")
	dataTypesFlag := flag.String("data-types", "events,users,locations", "comma-separated list of data types to ingest")
	forceRecreate := flag.Bool("force-recreate", false, "drop and recreate the tenant database before ingesting")
	envPath := flag.String("env", ".env", "path to an .env file")
	metricsAddr := flag.String("metrics-addr", "", "if set, serve Prometheus metrics on this address until the job completes")
	flag.Parse()

	cfg, err := config.Load(*envPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ingestd: failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.App.Env, cfg.App.LogLevel)

	if *tenantFlag == "" || *startFlag == "" || *endFlag == "" {
		logger.Error("ingestd: --tenant-id, --start, and --end are required")
		flag.Usage()
		os.Exit(1)
	}

	start, err := time.Parse(dateLayout, *startFlag)
	if err != nil {
		logger.Error("ingestd: invalid --start date", "error", err)
		os.Exit(1)
	}
	end, err := time.Parse(dateLayout, *endFlag)
	if err != nil {
		logger.Error("ingestd: invalid --end date", "error", err)
		os.Exit(1)
	}

	dataTypes := strings.Split(*dataTypesFlag, ",")
	for i, dt := range dataTypes {
		dataTypes[i] = strings.TrimSpace(dt)
	}

	metrics := telemetry.NewIngestionMetrics("ingest")
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server := &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("ingestd: metrics server stopped", "error", err)
			}
		}()
		defer server.Close()
	}

	router := dbrouter.New(cfg.DB, logger)
	repo := repository.New(router)
	prov := provisioner.New(cfg.DB, logger)
	factory := tenantclient.New(repo, logger)
	publisher := events.NewPublisher(cfg.Bus.URL, cfg.Bus.Namespace, logger)
	defer publisher.Close()

	engine := ingest.New(prov, repo, factory, publisher, metrics, logger)

	tenantID := tenantid.Normalize(*tenantFlag)
	logger.Info("ingestd: starting job", "tenant_id", tenantID, "start", start, "end", end, "data_types", dataTypes)

	ctx := context.Background()
	if *forceRecreate {
		if _, err := prov.Provision(ctx, tenantID, true); err != nil {
			logger.Error("ingestd: force recreate failed", "tenant_id", tenantID, "error", err)
			os.Exit(1)
		}
	}

	job, err := engine.Run(ctx, tenantID, *jobIDFlag, model.RunRequest{
		StartDate: start,
		EndDate:   end,
		DataTypes: dataTypes,
	})
	if err != nil {
		logger.Error("ingestd: job failed to run", "tenant_id", tenantID, "error", err)
		os.Exit(1)
	}

	logger.Info("ingestd: job finished", "tenant_id", tenantID, "job_id", job.JobID, "status", job.Status, "error_message", job.ErrorMessage)
	if job.Status == model.JobStatusFailed {
		os.Exit(1)
	}
}
