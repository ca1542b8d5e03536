package fleetstate

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"

	"gitlab.com/gpugate.net/internal/core/ports/primary"
	"gitlab.com/gpugate.net/internal/core/ports/secondary"
	"gitlab.com/gpugate.net/internal/domain"
)

const (
	workerKeyPrefix  = "fleet:worker:"
	workerExpiration = 5 * time.Minute
)

var _ secondary.FleetStatePublisher = &Publisher{}

// Publisher mirrors worker snapshots into Redis with a TTL, so a stale
// entry disappears on its own if the gateway dies.
type Publisher struct {
	redisClient *redis.Client
	logger      primary.Logger
}

// NewPublisher creates a new Redis fleet state publisher
func NewPublisher(redisClient *redis.Client, logger primary.Logger) *Publisher {
	return &Publisher{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishWorker saves one worker snapshot to Redis
func (p *Publisher) PublishWorker(ctx context.Context, worker domain.WorkerHandle) error {
	workerJSON, err := json.Marshal(worker)
	if err != nil {
		p.logger.Error("Failed to marshal worker snapshot", "error", err)
		return fmt.Errorf("failed to marshal worker snapshot: %w", err)
	}

	workerKey := fmt.Sprintf("%s%d", workerKeyPrefix, worker.ID)
	if err := p.redisClient.Set(ctx, workerKey, workerJSON, workerExpiration).Err(); err != nil {
		p.logger.Error("Failed to publish worker snapshot", "workerId", worker.ID, "error", err)
		return fmt.Errorf("failed to publish worker snapshot: %w", err)
	}

	return nil
}

// GetFleet retrieves the last published snapshot of every worker
func (p *Publisher) GetFleet(ctx context.Context) ([]*domain.WorkerHandle, error) {
	var cursor uint64
	var workerKeys []string
	var err error

	// Use SCAN to iterate over keys with the specified prefix
	for {
		var keys []string
		keys, cursor, err = p.redisClient.Scan(ctx, cursor, workerKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan worker keys: %w", err)
		}
		workerKeys = append(workerKeys, keys...)
		if cursor == 0 {
			break
		}
	}

	var workers []*domain.WorkerHandle
	if len(workerKeys) == 0 {
		return workers, nil
	}

	workerData, err := p.redisClient.MGet(ctx, workerKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve worker snapshots: %w", err)
	}

	for _, data := range workerData {
		if data == nil {
			continue
		}
		var worker domain.WorkerHandle
		if err := json.Unmarshal([]byte(data.(string)), &worker); err != nil {
			return nil, fmt.Errorf("failed to unmarshal worker snapshot: %w", err)
		}
		workers = append(workers, &worker)
	}

	sort.Slice(workers, func(i, j int) bool { return workers[i].ID < workers[j].ID })
	return workers, nil
}
