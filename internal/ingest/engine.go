// Package ingest implements the job engine: it validates a run request,
// provisions the tenant database if needed, and drives the events, users,
// and locations phases to completion within a fixed wall-clock budget,
// always leaving the job in a terminal status.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ingestio/enginecore/internal/events"
	"github.com/ingestio/enginecore/internal/model"
	"github.com/ingestio/enginecore/internal/provisioner"
	"github.com/ingestio/enginecore/internal/repository"
	"github.com/ingestio/enginecore/internal/telemetry"
	"github.com/ingestio/enginecore/internal/tenantclient"
)

// jobBudget is the wall-clock limit for a single job, from the moment it
// starts processing. A job still running after this long is stopped and
// marked failed; its extraction and write goroutines are abandoned via
// context cancellation, not forcibly killed.
const jobBudget = 30 * time.Minute

// Engine runs ingestion jobs for a tenant.
type Engine struct {
	provisioner *provisioner.Provisioner
	repo        *repository.Repository
	factory     *tenantclient.Factory
	publisher   *events.Publisher
	metrics     *telemetry.IngestionMetrics
	logger      *slog.Logger
	validate    *validator.Validate
}

// New creates an Engine.
func New(
	prov *provisioner.Provisioner,
	repo *repository.Repository,
	factory *tenantclient.Factory,
	publisher *events.Publisher,
	metrics *telemetry.IngestionMetrics,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		provisioner: prov,
		repo:        repo,
		factory:     factory,
		publisher:   publisher,
		metrics:     metrics,
		logger:      logger,
		validate:    validator.New(),
	}
}

// Run validates req, ensures tenantID's database is provisioned, creates a
// job record under jobID (a caller-chosen identifier, unique per tenant; if
// empty, one is generated), and runs it to a terminal status, returning the
// final job record.
func (e *Engine) Run(ctx context.Context, tenantID, jobID string, req model.RunRequest) (model.Job, error) {
	if err := e.validate.Struct(req); err != nil {
		return model.Job{}, fmt.Errorf("ingest: invalid run request: %w", err)
	}

	if _, err := e.provisioner.Provision(ctx, tenantID, false); err != nil {
		e.metrics.ProvisionFailures.WithLabelValues(tenantID).Inc()
		return model.Job{}, fmt.Errorf("ingest: provision tenant database: %w", err)
	}
	e.metrics.TenantsProvisioned.WithLabelValues(tenantID).Inc()

	job, err := e.repo.CreateJob(ctx, tenantID, jobID, req)
	if err != nil {
		return model.Job{}, fmt.Errorf("ingest: create job: %w", err)
	}

	e.metrics.JobsStarted.WithLabelValues(tenantID).Inc()
	e.publisher.Publish(ctx, tenantID, job.JobID, model.JobStatusQueued)

	e.runJobSafe(tenantID, job)

	return e.repo.GetJob(ctx, tenantID, job.JobID)
}

// runJobSafe wraps runJob with the job's wall-clock budget and a panic
// guard, guaranteeing a terminal status is written no matter how runJob
// exits: normally, by timeout, or by an unexpected panic.
func (e *Engine) runJobSafe(tenantID string, job model.Job) {
	start := time.Now()
	defer func() {
		e.metrics.JobDuration.WithLabelValues(tenantID).Observe(time.Since(start).Seconds())
	}()

	jobCtx, cancel := context.WithTimeout(context.Background(), jobBudget)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// The panic guard runs on runJob's own goroutine: recover only sees
		// panics raised on the goroutine it runs in.
		defer func() {
			if r := recover(); r != nil {
				msg := fmt.Sprintf("Job failed due to an unexpected error: %v. Please contact support if this persists.", r)
				e.finalize(context.Background(), tenantID, job.JobID, model.JobStatusFailed, msg, nil)
				e.metrics.JobsFailed.WithLabelValues(tenantID, "panic").Inc()
			}
		}()
		e.runJob(jobCtx, tenantID, job)
	}()

	select {
	case <-done:
	case <-jobCtx.Done():
		e.finalize(context.Background(), tenantID, job.JobID, model.JobStatusFailed, "Job timed out after 30 minutes", nil)
		e.metrics.JobsTimedOut.WithLabelValues(tenantID).Inc()
		e.metrics.JobsFailed.WithLabelValues(tenantID, "timeout").Inc()
	}
}

// runJob marks the job processing, runs each requested phase in sequence
// (events, then users, then locations), and writes the final status. It
// always writes a terminal status itself; runJobSafe's timeout/panic paths
// only fire if runJob never gets the chance to.
func (e *Engine) runJob(ctx context.Context, tenantID string, job model.Job) {
	now := time.Now().UTC()
	if err := e.repo.UpdateJobStatus(ctx, tenantID, job.JobID, repository.JobStatusUpdate{
		Status:    model.JobStatusProcessing,
		StartedAt: &now,
	}); err != nil {
		e.logger.Error("ingest: failed to mark job processing", "tenant_id", tenantID, "job_id", job.JobID, "error", err)
		e.finalize(ctx, tenantID, job.JobID, model.JobStatusFailed, describeFailure("mark job processing", "tenant database", err), nil)
		return
	}
	e.publisher.Publish(ctx, tenantID, job.JobID, model.JobStatusProcessing)

	var allWarnings []string
	recordsProcessed := map[string]any{}
	wantPhase := func(name string) bool {
		for _, dt := range job.DataTypes {
			if dt == name {
				return true
			}
		}
		return false
	}

	// markPhaseFailed writes the job's terminal failed status with a
	// classified error_message and returns control to the caller, which
	// aborts any remaining phases: phases are sequential specifically so a
	// fatal failure can fail fast rather than run phases against a job
	// already known to be broken.
	markPhaseFailed := func(name string, err error) {
		completedAt := time.Now().UTC()
		msg := describeFailure(fmt.Sprintf("process %s", name), "tenant data source", err)
		if werr := e.repo.UpdateJobStatus(ctx, tenantID, job.JobID, repository.JobStatusUpdate{
			Status:           model.JobStatusFailed,
			CompletedAt:      &completedAt,
			ErrorMessage:     &msg,
			RecordsProcessed: recordsProcessed,
		}); werr != nil {
			e.logger.Error("ingest: failed to write final job status", "tenant_id", tenantID, "job_id", job.JobID, "error", werr)
		}
		e.metrics.JobsFailed.WithLabelValues(tenantID, name).Inc()
		e.publisher.Publish(ctx, tenantID, job.JobID, model.JobStatusFailed)
	}

	markProgress := func(name string) {
		if err := e.repo.UpdateJobStatus(ctx, tenantID, job.JobID, repository.JobStatusUpdate{
			Status:   model.JobStatusProcessing,
			Progress: map[string]any{"current": name},
		}); err != nil {
			e.logger.Error("ingest: failed to record phase progress", "tenant_id", tenantID, "job_id", job.JobID, "phase", name, "error", err)
		}
	}

	if wantPhase(model.DataTypeEvents) {
		markProgress(model.DataTypeEvents)
		counts, warnings, err := timedPhase(e, tenantID, model.DataTypeEvents, func() (map[string]int, []string, error) {
			return e.processEvents(ctx, tenantID, job.StartDate, job.EndDate)
		})
		if err != nil {
			markPhaseFailed(model.DataTypeEvents, err)
			return
		}
		for eventType, n := range counts {
			recordsProcessed[eventType] = n
		}
		allWarnings = append(allWarnings, warnings...)
	}

	if wantPhase(model.DataTypeUsers) {
		markProgress(model.DataTypeUsers)
		n, warnings, err := timedPhase(e, tenantID, model.DataTypeUsers, func() (int, []string, error) {
			return e.processUsers(ctx, tenantID)
		})
		if err != nil {
			markPhaseFailed(model.DataTypeUsers, err)
			return
		}
		recordsProcessed[model.DataTypeUsers] = n
		allWarnings = append(allWarnings, warnings...)
	}

	if wantPhase(model.DataTypeLocations) {
		markProgress(model.DataTypeLocations)
		n, warnings, err := timedPhase(e, tenantID, model.DataTypeLocations, func() (int, []string, error) {
			return e.processLocations(ctx, tenantID)
		})
		if err != nil {
			markPhaseFailed(model.DataTypeLocations, err)
			return
		}
		recordsProcessed[model.DataTypeLocations] = n
		allWarnings = append(allWarnings, warnings...)
	}

	status := model.JobStatusCompleted
	if len(allWarnings) > 0 {
		status = model.JobStatusCompletedWithWarning
		recordsProcessed["warnings"] = allWarnings
	}

	completedAt := time.Now().UTC()
	if err := e.repo.UpdateJobStatus(ctx, tenantID, job.JobID, repository.JobStatusUpdate{
		Status:           status,
		CompletedAt:      &completedAt,
		RecordsProcessed: recordsProcessed,
	}); err != nil {
		e.logger.Error("ingest: failed to write final job status", "tenant_id", tenantID, "job_id", job.JobID, "error", err)
	}

	e.metrics.JobsCompleted.WithLabelValues(tenantID, status).Inc()
	if status == model.JobStatusCompletedWithWarning {
		e.metrics.PhaseWarnings.WithLabelValues(tenantID, "job").Add(float64(len(allWarnings)))
	}
	e.publisher.Publish(ctx, tenantID, job.JobID, status)
}

// timedPhase observes a phase's wall-clock duration around its run
// function. Events returns per-type counts (map[string]int) while
// users/locations return a single int count; the type parameter lets both
// shapes share this timing instrumentation without a phase interface.
func timedPhase[T any](e *Engine, tenantID, phase string, run func() (T, []string, error)) (T, []string, error) {
	started := time.Now()
	defer func() {
		e.metrics.PhaseDuration.WithLabelValues(tenantID, phase).Observe(time.Since(started).Seconds())
	}()
	return run()
}

// finalize writes a terminal failed status directly, bypassing runJob's
// normal per-phase bookkeeping; used by runJobSafe's timeout and panic
// paths, where runJob itself never reached its own final status write, and
// by runJob when the job cannot be marked processing at all.
func (e *Engine) finalize(ctx context.Context, tenantID, jobID, status, errorMessage string, records map[string]any) {
	completedAt := time.Now().UTC()
	msg := errorMessage
	if err := e.repo.UpdateJobStatus(ctx, tenantID, jobID, repository.JobStatusUpdate{
		Status:           status,
		CompletedAt:      &completedAt,
		ErrorMessage:     &msg,
		RecordsProcessed: records,
	}); err != nil {
		e.logger.Error("ingest: failed to finalize job", "tenant_id", tenantID, "job_id", jobID, "error", err)
	}
	e.publisher.Publish(ctx, tenantID, jobID, status)
}
