package secondary

import (
	"context"

	"gitlab.com/gpugate.net/internal/domain"
)

// FleetStatePublisher pushes worker snapshots to an external store so
// dashboards can watch the fleet without calling into the control plane.
type FleetStatePublisher interface {
	// PublishWorker saves one worker snapshot
	PublishWorker(ctx context.Context, worker domain.WorkerHandle) error

	// GetFleet retrieves the last published snapshot of every worker
	GetFleet(ctx context.Context) ([]*domain.WorkerHandle, error)
}
