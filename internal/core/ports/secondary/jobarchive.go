package secondary

import (
	"context"

	"github.com/google/uuid"

	"gitlab.com/gpugate.net/internal/domain"
)

// JobArchive persists terminal jobs so results stay queryable after the
// dispatcher evicts them from memory.
type JobArchive interface {
	// SaveJob upserts a terminal job
	SaveJob(ctx context.Context, job *domain.Job) error

	// GetJob retrieves an archived job by ID, nil when not found
	GetJob(ctx context.Context, jobID uuid.UUID) (*domain.Job, error)
}
