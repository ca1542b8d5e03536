// package jobhistory contains the PostgreSQL implementation of the job archive
package jobhistory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"gitlab.com/gpugate.net/internal/core/ports/primary"
	"gitlab.com/gpugate.net/internal/core/ports/secondary"
	"gitlab.com/gpugate.net/internal/domain"
)

var _ secondary.JobArchive = &JobHistory{}

// JobHistory implements the JobArchive interface with PostgreSQL
type JobHistory struct {
	db     *sqlx.DB
	logger primary.Logger
}

// NewJobHistory creates a new PostgreSQL job archive
func NewJobHistory(db *sqlx.DB, logger primary.Logger) *JobHistory {
	return &JobHistory{
		db:     db,
		logger: logger,
	}
}

// SaveJob upserts a terminal job into PostgreSQL
func (r *JobHistory) SaveJob(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO job_history (
			id, payload, status, fail_reason, submitted_at,
			dispatched_at, completed_at, worker_id, result, error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			fail_reason = EXCLUDED.fail_reason,
			dispatched_at = EXCLUDED.dispatched_at,
			completed_at = EXCLUDED.completed_at,
			worker_id = EXCLUDED.worker_id,
			result = EXCLUDED.result,
			error = EXCLUDED.error
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		job.ID,
		[]byte(job.Payload),
		job.Status,
		job.Reason,
		job.SubmittedAt,
		job.DispatchedAt,
		job.CompletedAt,
		job.WorkerID,
		[]byte(job.Result),
		job.Error,
	)

	if err != nil {
		r.logger.Error("Failed to archive job", "jobId", job.ID, "error", err)
		return fmt.Errorf("failed to archive job: %w", err)
	}

	return nil
}

// GetJob retrieves an archived job by ID, nil when not found
func (r *JobHistory) GetJob(ctx context.Context, jobID uuid.UUID) (*domain.Job, error) {
	query := `
		SELECT id, payload, status, fail_reason, submitted_at,
			dispatched_at, completed_at, worker_id, result, error
		FROM job_history
		WHERE id = $1
	`

	var job domain.Job
	var failReason sql.NullString
	var jobError sql.NullString
	row := r.db.QueryRowContext(ctx, query, jobID)
	err := row.Scan(
		&job.ID,
		(*[]byte)(&job.Payload),
		&job.Status,
		&failReason,
		&job.SubmittedAt,
		&job.DispatchedAt,
		&job.CompletedAt,
		&job.WorkerID,
		(*[]byte)(&job.Result),
		&jobError,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get archived job", "jobId", jobID, "error", err)
		return nil, fmt.Errorf("failed to get archived job: %w", err)
	}

	if failReason.Valid {
		job.Reason = domain.FailReason(failReason.String)
	}
	if jobError.Valid {
		job.Error = jobError.String
	}

	return &job, nil
}
