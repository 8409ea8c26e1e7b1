package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ingestio/enginecore/internal/model"
)

// CreateJob inserts a new processing_jobs row in the queued state and
// returns the persisted job. jobID is caller-chosen and unique per tenant;
// if empty, a UUID is generated so callers that don't care about a specific
// job ID (e.g. ad hoc CLI invocations) don't have to supply one.
func (r *Repository) CreateJob(ctx context.Context, tenantID, jobID string, req model.RunRequest) (model.Job, error) {
	if jobID == "" {
		jobID = uuid.New().String()
	}
	job := model.Job{
		JobID:     jobID,
		TenantID:  tenantID,
		Status:    model.JobStatusQueued,
		DataTypes: req.DataTypes,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Progress:  map[string]any{},
		CreatedAt: time.Now().UTC(),
	}

	err := r.router.WithSession(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		dataTypesJSON, err := json.Marshal(job.DataTypes)
		if err != nil {
			return fmt.Errorf("repository: encode data_types: %w", err)
		}
		progressJSON, err := json.Marshal(job.Progress)
		if err != nil {
			return fmt.Errorf("repository: encode progress: %w", err)
		}

		_, err = tx.Exec(ctx, `
INSERT INTO processing_jobs (job_id, tenant_id, status, data_types, start_date, end_date, progress, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			job.JobID, tenantID, job.Status, dataTypesJSON, job.StartDate, job.EndDate, progressJSON, job.CreatedAt)
		if err != nil {
			return fmt.Errorf("repository: insert processing_jobs: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Job{}, err
	}

	return job, nil
}

// JobStatusUpdate carries the fields UpdateJobStatus should change. Only
// non-nil fields are included in the generated UPDATE statement, mirroring
// the kwargs-driven dynamic update the original job tracker used.
type JobStatusUpdate struct {
	Status           string
	StartedAt        *time.Time
	CompletedAt      *time.Time
	ErrorMessage     *string
	Progress         map[string]any
	RecordsProcessed map[string]any
}

// UpdateJobStatus applies upd to the named job, building its SET clause
// dynamically so a caller that only wants to flip status doesn't have to
// specify every column.
func (r *Repository) UpdateJobStatus(ctx context.Context, tenantID, jobID string, upd JobStatusUpdate) error {
	return r.router.WithSession(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		sets := []string{"status = $1"}
		args := []any{upd.Status}

		next := func(v any) string {
			args = append(args, v)
			return fmt.Sprintf("$%d", len(args))
		}

		if upd.StartedAt != nil {
			sets = append(sets, "started_at = "+next(*upd.StartedAt))
		}
		if upd.CompletedAt != nil {
			sets = append(sets, "completed_at = "+next(*upd.CompletedAt))
		}
		if upd.ErrorMessage != nil {
			sets = append(sets, "error_message = "+next(*upd.ErrorMessage))
		}
		if upd.Progress != nil {
			b, err := json.Marshal(upd.Progress)
			if err != nil {
				return fmt.Errorf("repository: encode progress: %w", err)
			}
			sets = append(sets, "progress = "+next(b)+"::jsonb")
		}
		if upd.RecordsProcessed != nil {
			b, err := json.Marshal(upd.RecordsProcessed)
			if err != nil {
				return fmt.Errorf("repository: encode records_processed: %w", err)
			}
			sets = append(sets, "records_processed = "+next(b)+"::jsonb")
		}

		args = append(args, tenantID, jobID)
		sql := fmt.Sprintf("UPDATE processing_jobs SET %s WHERE tenant_id = $%d AND job_id = $%d", strings.Join(sets, ", "), len(args)-1, len(args))

		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("repository: update processing_jobs: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("repository: job %s not found", jobID)
		}
		return nil
	})
}

// GetJob fetches a single job by ID.
func (r *Repository) GetJob(ctx context.Context, tenantID, jobID string) (model.Job, error) {
	var job model.Job
	err := r.router.WithSession(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		var dataTypesJSON, progressJSON, recordsJSON []byte
		row := tx.QueryRow(ctx, `
SELECT job_id, status, data_types, start_date, end_date, progress, records_processed,
       error_message, started_at, completed_at, created_at
FROM processing_jobs WHERE tenant_id = $1 AND job_id = $2`, tenantID, jobID)

		err := row.Scan(&job.JobID, &job.Status, &dataTypesJSON, &job.StartDate, &job.EndDate,
			&progressJSON, &recordsJSON, &job.ErrorMessage, &job.StartedAt, &job.CompletedAt, &job.CreatedAt)
		if err != nil {
			return fmt.Errorf("repository: query processing_jobs: %w", err)
		}

		if len(dataTypesJSON) > 0 {
			if err := json.Unmarshal(dataTypesJSON, &job.DataTypes); err != nil {
				return fmt.Errorf("repository: decode data_types: %w", err)
			}
		}
		if len(progressJSON) > 0 {
			if err := json.Unmarshal(progressJSON, &job.Progress); err != nil {
				return fmt.Errorf("repository: decode progress: %w", err)
			}
		}
		if len(recordsJSON) > 0 {
			if err := json.Unmarshal(recordsJSON, &job.RecordsProcessed); err != nil {
				return fmt.Errorf("repository: decode records_processed: %w", err)
			}
		}

		job.TenantID = tenantID
		return nil
	})
	if err != nil {
		return model.Job{}, err
	}
	return job, nil
}
