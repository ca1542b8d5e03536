package secondary

import (
	"context"

	"gitlab.com/gpugate.net/internal/domain"
)

// WorkerClient is the outbound port to one backend worker process.
type WorkerClient interface {
	// Probe performs a lightweight liveness call against the worker.
	// Any non-2xx response or timeout is returned as an error.
	Probe(ctx context.Context, worker domain.WorkerHandle) error

	// SubmitJob forwards a job and blocks until the worker produces a
	// terminal result or ctx is cancelled. Workers that only acknowledge
	// acceptance are polled internally until the job finishes.
	SubmitJob(ctx context.Context, worker domain.WorkerHandle, job *domain.Job) (*domain.JobResult, error)

	// CancelJob asks the worker to stop a running job. Best effort; the
	// underlying generation is not guaranteed to stop.
	CancelJob(ctx context.Context, worker domain.WorkerHandle, jobID string) error
}
