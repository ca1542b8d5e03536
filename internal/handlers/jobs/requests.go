package jobs

import (
	"encoding/json"

	"github.com/google/uuid"

	"gitlab.com/gpugate.net/internal/domain"
)

// CreateJobRequest represents a request to submit a job. The payload is
// forwarded to the worker untouched.
type CreateJobRequest struct {
	Payload json.RawMessage `json:"payload"`
}

// CreateJobResponse represents a response to a submit request
type CreateJobResponse struct {
	JobID  uuid.UUID        `json:"jobId"`
	Status domain.JobStatus `json:"status"`
}

// CancelJobResponse represents a response to a cancel request
type CancelJobResponse struct {
	Cancelled bool `json:"cancelled"`
}
