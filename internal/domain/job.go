package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the status of a job
type JobStatus string

const (
	JobStatusQueued     JobStatus = "QUEUED"
	JobStatusDispatched JobStatus = "DISPATCHED"
	JobStatusSucceeded  JobStatus = "SUCCEEDED"
	JobStatusFailed     JobStatus = "FAILED"
)

// IsTerminal reports whether the status is final.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// FailReason classifies why a job ended up Failed
type FailReason string

const (
	ReasonWorkerLost  FailReason = "WORKER_LOST"
	ReasonCancelled   FailReason = "CANCELLED"
	ReasonWorkerError FailReason = "WORKER_ERROR"
)

// Job represents one generation request moving through the gateway. The
// payload is opaque to the control plane and forwarded to the worker as-is.
type Job struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	Payload      json.RawMessage `db:"payload" json:"payload,omitempty"`
	Status       JobStatus       `db:"status" json:"status"`
	Reason       FailReason      `db:"fail_reason" json:"reason,omitempty"`
	SubmittedAt  time.Time       `db:"submitted_at" json:"submittedAt"`
	DispatchedAt *time.Time      `db:"dispatched_at" json:"dispatchedAt,omitempty"`
	CompletedAt  *time.Time      `db:"completed_at" json:"completedAt,omitempty"`
	WorkerID     *int            `db:"worker_id" json:"workerId,omitempty"`
	Result       json.RawMessage `db:"result" json:"result,omitempty"`
	Error        string          `db:"error" json:"error,omitempty"`
}

// NewJob creates a queued job with a fresh id
func NewJob(payload json.RawMessage) *Job {
	return &Job{
		ID:          uuid.New(),
		Payload:     payload,
		Status:      JobStatusQueued,
		SubmittedAt: time.Now(),
	}
}

// JobResult is what a worker hands back for one finished job.
type JobResult struct {
	Output json.RawMessage
	Err    string
}

// Succeeded reports whether the worker finished without an error.
func (r *JobResult) Succeeded() bool {
	return r.Err == ""
}
