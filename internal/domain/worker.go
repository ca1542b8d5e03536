package domain

import "time"

// HealthState represents the probe-driven health of a worker
type HealthState string

const (
	HealthHealthy HealthState = "HEALTHY"
	HealthSuspect HealthState = "SUSPECT"
	HealthDown    HealthState = "DOWN"
)

// WorkerHandle represents one backend GPU worker process. Identity and
// address are fixed at startup; health and load fields are mutated only
// under the dispatcher's lock.
type WorkerHandle struct {
	ID            int         `json:"id"`
	Addr          string      `json:"addr"`
	MaxConcurrent int         `json:"maxConcurrent"`
	InFlight      int         `json:"inFlight"`
	Health        HealthState `json:"health"`
	ProbeFailures int         `json:"probeFailures"`
	LastSuccess   time.Time   `json:"lastSuccess"`
}

// NewWorkerHandle creates a worker handle. Workers start out Suspect so
// jobs are never routed to an address that has not answered a probe yet.
func NewWorkerHandle(id int, addr string, maxConcurrent int) *WorkerHandle {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &WorkerHandle{
		ID:            id,
		Addr:          addr,
		MaxConcurrent: maxConcurrent,
		Health:        HealthSuspect,
	}
}

// LoadRatio returns in-flight jobs over capacity, used for worker selection.
func (w *WorkerHandle) LoadRatio() float64 {
	return float64(w.InFlight) / float64(w.MaxConcurrent)
}

// HasCapacity reports whether the worker can accept one more job.
func (w *WorkerHandle) HasCapacity() bool {
	return w.InFlight < w.MaxConcurrent
}

// Snapshot returns a copy safe to read outside the dispatcher's lock.
func (w *WorkerHandle) Snapshot() WorkerHandle {
	return *w
}
