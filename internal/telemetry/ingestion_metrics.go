// Package telemetry registers the Prometheus metrics the ingestion engine
// exposes for operational observability.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// IngestionMetrics holds Prometheus metrics for the job engine and its
// extractors. All metrics include a tenant_id label for per-tenant
// dashboard segmentation.
type IngestionMetrics struct {
	// Job lifecycle
	JobsStarted    *prometheus.CounterVec
	JobsCompleted  *prometheus.CounterVec
	JobsFailed     *prometheus.CounterVec
	JobsTimedOut   *prometheus.CounterVec
	JobDuration    *prometheus.HistogramVec

	// Phases
	PhaseDuration *prometheus.HistogramVec
	PhaseWarnings *prometheus.CounterVec

	// Event extraction
	EventsExtracted *prometheus.CounterVec
	EventTypeErrors *prometheus.CounterVec

	// Reclassification
	EventsReclassified *prometheus.CounterVec

	// Batch writes
	BatchesWritten *prometheus.CounterVec
	BatchErrors    *prometheus.CounterVec
	RecordsUpserted *prometheus.CounterVec

	// Provisioning
	TenantsProvisioned *prometheus.CounterVec
	ProvisionFailures  *prometheus.CounterVec
}

// NewIngestionMetrics creates and registers all ingestion metrics under the
// given namespace (defaults to "ingest" if empty).
func NewIngestionMetrics(namespace string) *IngestionMetrics {
	if namespace == "" {
		namespace = "ingest"
	}

	subsystem := "engine"

	return &IngestionMetrics{
		JobsStarted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "jobs_started_total",
				Help:      "Total ingestion jobs started",
			},
			[]string{"tenant_id"},
		),
		JobsCompleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "jobs_completed_total",
				Help:      "Total ingestion jobs that reached a completed terminal status",
			},
			[]string{"tenant_id", "status"}, // status: completed, completed_with_warnings
		),
		JobsFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "jobs_failed_total",
				Help:      "Total ingestion jobs that reached status failed",
			},
			[]string{"tenant_id", "kind"},
		),
		JobsTimedOut: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "jobs_timed_out_total",
				Help:      "Total ingestion jobs that exceeded the wall-clock budget",
			},
			[]string{"tenant_id"},
		),
		JobDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "job_duration_seconds",
				Help:      "Ingestion job duration from start to terminal status",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 14), // 1s .. 8192s (~2.3h)
			},
			[]string{"tenant_id"},
		),
		PhaseDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "phase_duration_seconds",
				Help:      "Duration of a single job phase",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"tenant_id", "phase"}, // phase: events, users, locations
		),
		PhaseWarnings: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "phase_warnings_total",
				Help:      "Total warnings recorded by phase",
			},
			[]string{"tenant_id", "phase"},
		),
		EventsExtracted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "events_extracted_total",
				Help:      "Total event records extracted from the warehouse, by event type",
			},
			[]string{"tenant_id", "event_type"},
		),
		EventTypeErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "event_type_errors_total",
				Help:      "Total per-event-type failures during the events phase",
			},
			[]string{"tenant_id", "event_type"},
		),
		EventsReclassified: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "events_reclassified_total",
				Help:      "Total no_search_results records reclassified as view_search_results",
			},
			[]string{"tenant_id"},
		),
		BatchesWritten: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "batches_written_total",
				Help:      "Total batches written to a tenant database",
			},
			[]string{"tenant_id", "table"},
		),
		BatchErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "batch_errors_total",
				Help:      "Total isolated batch failures",
			},
			[]string{"tenant_id", "table"},
		),
		RecordsUpserted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "records_upserted_total",
				Help:      "Total records written (insert or upsert) to a tenant database",
			},
			[]string{"tenant_id", "table"},
		),
		TenantsProvisioned: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tenants_provisioned_total",
				Help:      "Total successful tenant database provisioning runs",
			},
			[]string{"tenant_id"},
		),
		ProvisionFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "provision_failures_total",
				Help:      "Total tenant provisioning failures",
			},
			[]string{"tenant_id"},
		),
	}
}
