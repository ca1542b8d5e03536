package dispatch

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"gitlab.com/gpugate.net/internal/domain"
)

// IDispatcherService defines the interface for the job dispatcher
type IDispatcherService interface {
	// Submit admits a job: it is either assigned to a worker immediately
	// or parked in the admission queue. Fails with QueueFull when the
	// queue is at capacity.
	Submit(ctx context.Context, payload json.RawMessage) (*domain.Job, error)

	// Poll returns the current state of a job, falling back to the
	// archive once the job has been evicted from memory. Fails with
	// UnknownJob when no record exists anywhere.
	Poll(ctx context.Context, jobID uuid.UUID) (*domain.Job, error)

	// Cancel removes a queued job, or best-effort signals the worker for
	// a dispatched one. Returns whether cancellation was initiated.
	Cancel(ctx context.Context, jobID uuid.UUID) (bool, error)

	// ReportProbe feeds one probe outcome into the health state machine
	ReportProbe(ctx context.Context, workerID int, healthy bool)

	// FleetSnapshot returns a copy of every worker's current state
	FleetSnapshot() []domain.WorkerHandle

	// ReapTerminalJobs evicts terminal jobs older than the retention
	// window from memory; archived copies remain queryable
	ReapTerminalJobs(ctx context.Context)
}
