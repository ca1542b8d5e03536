package health

import (
	"context"
	"time"

	"gitlab.com/gpugate.net/internal/config"
	"gitlab.com/gpugate.net/internal/core/ports/primary"
	"gitlab.com/gpugate.net/internal/core/ports/secondary"
	"gitlab.com/gpugate.net/internal/domain"
)

var _ IHealthMonitor = &HealthMonitor{}

// HealthMonitor probes every worker on a fixed interval, independent of
// job traffic, and reports outcomes to the sink. Each worker gets its own
// loop with a bounded probe timeout, so one hung worker never stalls the
// probes of the others.
type HealthMonitor struct {
	sink    ProbeSink
	client  secondary.WorkerClient
	workers []domain.WorkerHandle
	cfg     *config.HealthConfig
	logger  primary.Logger
}

// NewHealthMonitor creates a health monitor for a fixed set of workers
func NewHealthMonitor(
	sink ProbeSink,
	client secondary.WorkerClient,
	workers []domain.WorkerHandle,
	cfg *config.HealthConfig,
	logger primary.Logger,
) *HealthMonitor {
	return &HealthMonitor{
		sink:    sink,
		client:  client,
		workers: workers,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start launches one probe loop per worker
func (m *HealthMonitor) Start(ctx context.Context) {
	m.logger.Info("Starting health monitor", "workers", len(m.workers), "interval", m.cfg.ProbeInterval)
	for _, worker := range m.workers {
		go m.probeLoop(ctx, worker)
	}
}

func (m *HealthMonitor) probeLoop(ctx context.Context, worker domain.WorkerHandle) {
	// Probe once up front so a worker that is already up goes Healthy
	// without waiting a full interval
	m.probeOne(ctx, worker)

	ticker := time.NewTicker(m.cfg.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probeOne(ctx, worker)
		}
	}
}

func (m *HealthMonitor) probeOne(ctx context.Context, worker domain.WorkerHandle) {
	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.ProbeTimeout)
	err := m.client.Probe(probeCtx, worker)
	cancel()

	if err != nil {
		m.logger.Debug("Probe failed", "workerId", worker.ID, "error", err)
	}
	m.sink.ReportProbe(ctx, worker.ID, err == nil)
}
