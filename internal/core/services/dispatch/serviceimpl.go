package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"gitlab.com/gpugate.net/internal/config"
	"gitlab.com/gpugate.net/internal/core/ports/primary"
	"gitlab.com/gpugate.net/internal/core/ports/secondary"
	"gitlab.com/gpugate.net/internal/domain"
	"gitlab.com/gpugate.net/internal/static/errs"
)

var _ IDispatcherService = &DispatcherService{}

// inflightJob tracks the forward goroutine of one dispatched job. The
// reason field is set before cancelling the context so the completion
// path can tell a WorkerLost apart from a caller cancellation.
type inflightJob struct {
	workerID     int
	dispatchedAt time.Time
	cancel       context.CancelFunc
	reason       domain.FailReason
}

// DispatcherService implements the IDispatcherService interface. All worker
// and job state is guarded by a single mutex; health probe outcomes and
// completion callbacks funnel through the same lock so load counters and
// health transitions never race.
type DispatcherService struct {
	mu       sync.Mutex
	workers  map[int]*domain.WorkerHandle
	order    []int
	jobs     map[uuid.UUID]*domain.Job
	inflight map[uuid.UUID]*inflightJob
	queue    *admissionQueue

	client   secondary.WorkerClient
	archive  secondary.JobArchive
	fleetPub secondary.FleetStatePublisher
	logger   primary.Logger

	gracePeriod      time.Duration
	retention        time.Duration
	failureThreshold int
}

// NewDispatcherService creates the dispatcher with a fixed worker table
// built from configuration. The fleet never resizes at runtime.
func NewDispatcherService(
	fleetCfg *config.FleetConfig,
	dispatchCfg *config.DispatchConfig,
	healthCfg *config.HealthConfig,
	client secondary.WorkerClient,
	archive secondary.JobArchive,
	fleetPub secondary.FleetStatePublisher,
	logger primary.Logger,
) *DispatcherService {
	workers := make(map[int]*domain.WorkerHandle, len(fleetCfg.Workers))
	order := make([]int, 0, len(fleetCfg.Workers))
	for _, spec := range fleetCfg.Workers {
		workers[spec.ID] = domain.NewWorkerHandle(spec.ID, spec.Addr, fleetCfg.MaxConcurrent)
		order = append(order, spec.ID)
	}
	sort.Ints(order)

	return &DispatcherService{
		workers:          workers,
		order:            order,
		jobs:             make(map[uuid.UUID]*domain.Job),
		inflight:         make(map[uuid.UUID]*inflightJob),
		queue:            newAdmissionQueue(dispatchCfg.QueueCapacity),
		client:           client,
		archive:          archive,
		fleetPub:         fleetPub,
		logger:           logger,
		gracePeriod:      dispatchCfg.GracePeriod,
		retention:        dispatchCfg.Retention,
		failureThreshold: healthCfg.FailureThreshold,
	}
}

// Submit admits a job into the system
func (s *DispatcherService) Submit(ctx context.Context, payload json.RawMessage) (*domain.Job, error) {
	job := domain.NewJob(payload)

	s.mu.Lock()
	if worker := s.pickWorkerLocked(); worker != nil {
		s.assignLocked(job, worker)
	} else {
		if err := s.queue.push(job); err != nil {
			s.mu.Unlock()
			s.logger.Warn("Job rejected, queue at capacity", "jobId", job.ID)
			return nil, err
		}
		s.logger.Debug("Job queued", "jobId", job.ID, "queueDepth", s.queue.size())
	}
	s.jobs[job.ID] = job
	snapshot := *job
	s.mu.Unlock()

	return &snapshot, nil
}

// Poll returns the current state of a job
func (s *DispatcherService) Poll(ctx context.Context, jobID uuid.UUID) (*domain.Job, error) {
	s.mu.Lock()
	if job, ok := s.jobs[jobID]; ok {
		snapshot := *job
		s.mu.Unlock()
		return &snapshot, nil
	}
	s.mu.Unlock()

	// Evicted from memory; the archive is the long-term record
	if s.archive != nil {
		job, err := s.archive.GetJob(ctx, jobID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up archived job: %w", err)
		}
		if job != nil {
			return job, nil
		}
	}

	return nil, errs.UnknownJob
}

// Cancel cancels a queued job immediately or signals the worker for a
// dispatched one.
func (s *DispatcherService) Cancel(ctx context.Context, jobID uuid.UUID) (bool, error) {
	s.mu.Lock()
	job, ok := s.jobs[jobID]
	if !ok {
		s.mu.Unlock()
		return false, errs.UnknownJob
	}

	switch job.Status {
	case domain.JobStatusQueued:
		s.queue.remove(jobID)
		s.terminateLocked(job, domain.JobStatusFailed, domain.ReasonCancelled, nil, "cancelled before dispatch")
		s.mu.Unlock()
		s.logger.Info("Queued job cancelled", "jobId", jobID)
		return true, nil

	case domain.JobStatusDispatched:
		fl := s.inflight[jobID]
		if fl == nil || fl.reason != "" {
			// cancellation already in flight
			s.mu.Unlock()
			return true, nil
		}
		fl.reason = domain.ReasonCancelled
		fl.cancel()
		worker := s.workers[fl.workerID].Snapshot()
		s.mu.Unlock()

		// Best effort: the generation on the GPU may not actually stop
		go func() {
			cancelCtx, cancelFn := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelFn()
			if err := s.client.CancelJob(cancelCtx, worker, jobID.String()); err != nil {
				s.logger.Warn("Worker cancel signal failed", "jobId", jobID, "workerId", worker.ID, "error", err)
			}
		}()
		s.logger.Info("Dispatched job cancellation initiated", "jobId", jobID, "workerId", worker.ID)
		return true, nil

	default:
		s.mu.Unlock()
		return false, nil
	}
}

// ReportProbe feeds one probe outcome into the health state machine. It
// runs under the same lock as dispatch and completion so a probe marking
// a worker Down cannot race a completion on that worker.
func (s *DispatcherService) ReportProbe(ctx context.Context, workerID int, healthy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	worker, ok := s.workers[workerID]
	if !ok {
		return
	}

	if healthy {
		worker.ProbeFailures = 0
		worker.LastSuccess = time.Now()
		if worker.Health != domain.HealthHealthy {
			s.logger.Info("Worker healthy", "workerId", workerID, "previous", worker.Health)
			worker.Health = domain.HealthHealthy
		}
		s.publishLocked(worker)
		// Re-enabled capacity may unblock queued work
		s.drainLocked()
		return
	}

	worker.ProbeFailures++
	switch worker.Health {
	case domain.HealthHealthy:
		worker.Health = domain.HealthSuspect
		s.logger.Warn("Worker suspect", "workerId", workerID, "failures", worker.ProbeFailures)
	case domain.HealthSuspect:
		if worker.ProbeFailures >= s.failureThreshold {
			worker.Health = domain.HealthDown
			s.logger.Error("Worker down", "workerId", workerID, "failures", worker.ProbeFailures)
			s.failWorkerJobsLocked(worker)
		}
	}
	s.publishLocked(worker)
}

// FleetSnapshot returns a copy of every worker's current state
func (s *DispatcherService) FleetSnapshot() []domain.WorkerHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshots := make([]domain.WorkerHandle, 0, len(s.order))
	for _, id := range s.order {
		snapshots = append(snapshots, s.workers[id].Snapshot())
	}
	return snapshots
}

// ReapTerminalJobs evicts terminal jobs older than the retention window
func (s *DispatcherService) ReapTerminalJobs(ctx context.Context) {
	cutoff := time.Now().Add(-s.retention)

	s.mu.Lock()
	reaped := 0
	for id, job := range s.jobs {
		if job.Status.IsTerminal() && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(s.jobs, id)
			reaped++
		}
	}
	s.mu.Unlock()

	if reaped > 0 {
		s.logger.Info("Reaped terminal jobs", "count", reaped)
	}
}

// pickWorkerLocked selects the healthy worker with the lowest load ratio.
// Iterating ids in ascending order with a strict comparison makes the
// tie-break deterministic.
func (s *DispatcherService) pickWorkerLocked() *domain.WorkerHandle {
	var best *domain.WorkerHandle
	for _, id := range s.order {
		worker := s.workers[id]
		if worker.Health != domain.HealthHealthy || !worker.HasCapacity() {
			continue
		}
		if best == nil || worker.LoadRatio() < best.LoadRatio() {
			best = worker
		}
	}
	return best
}

// assignLocked hands a job to a worker and spawns the forward goroutine.
// The network call happens outside the lock; its completion comes back
// through onComplete.
func (s *DispatcherService) assignLocked(job *domain.Job, worker *domain.WorkerHandle) {
	now := time.Now()
	workerID := worker.ID
	job.Status = domain.JobStatusDispatched
	job.DispatchedAt = &now
	job.WorkerID = &workerID
	worker.InFlight++

	forwardCtx, cancel := context.WithCancel(context.Background())
	s.inflight[job.ID] = &inflightJob{
		workerID:     workerID,
		dispatchedAt: now,
		cancel:       cancel,
	}

	jobCopy := *job
	workerCopy := worker.Snapshot()
	s.publishLocked(worker)
	s.logger.Info("Job dispatched", "jobId", job.ID, "workerId", workerID)

	go s.forward(forwardCtx, workerCopy, &jobCopy)
}

// forward runs the blocking worker call for one job
func (s *DispatcherService) forward(ctx context.Context, worker domain.WorkerHandle, job *domain.Job) {
	result, err := s.client.SubmitJob(ctx, worker, job)
	s.onComplete(job.ID, result, err)
}

// onComplete releases worker capacity, settles the job, and immediately
// drains the queue so freed capacity is reused before new submissions.
func (s *DispatcherService) onComplete(jobID uuid.UUID, result *domain.JobResult, err error) {
	s.mu.Lock()

	fl := s.inflight[jobID]
	delete(s.inflight, jobID)
	if fl != nil {
		if worker, ok := s.workers[fl.workerID]; ok && worker.InFlight > 0 {
			worker.InFlight--
			s.publishLocked(worker)
		}
	}

	job, ok := s.jobs[jobID]
	if ok && !job.Status.IsTerminal() {
		switch {
		case err != nil && fl != nil && fl.reason != "":
			s.terminateLocked(job, domain.JobStatusFailed, fl.reason, nil, "job cancelled")
		case err != nil:
			s.terminateLocked(job, domain.JobStatusFailed, domain.ReasonWorkerError, nil, err.Error())
		case result.Succeeded():
			s.terminateLocked(job, domain.JobStatusSucceeded, "", result.Output, "")
		default:
			s.terminateLocked(job, domain.JobStatusFailed, domain.ReasonWorkerError, nil, result.Err)
		}
	}

	s.drainLocked()
	s.mu.Unlock()
}

// failWorkerJobsLocked fails in-flight jobs on a worker that just went
// Down, once their dispatch age exceeds the grace period. Jobs are never
// requeued: a partially completed generation is not idempotent.
func (s *DispatcherService) failWorkerJobsLocked(worker *domain.WorkerHandle) {
	now := time.Now()
	for jobID, fl := range s.inflight {
		if fl.workerID != worker.ID || fl.reason != "" {
			continue
		}
		if now.Sub(fl.dispatchedAt) < s.gracePeriod {
			continue
		}
		fl.reason = domain.ReasonWorkerLost
		fl.cancel()
		if job, ok := s.jobs[jobID]; ok && !job.Status.IsTerminal() {
			s.terminateLocked(job, domain.JobStatusFailed, domain.ReasonWorkerLost, nil, errs.WorkerLost.Error())
			s.logger.Warn("In-flight job lost", "jobId", jobID, "workerId", worker.ID)
		}
	}
}

// terminateLocked settles a job and archives a copy off the lock
func (s *DispatcherService) terminateLocked(job *domain.Job, status domain.JobStatus, reason domain.FailReason, output json.RawMessage, errText string) {
	now := time.Now()
	job.Status = status
	job.Reason = reason
	job.Result = output
	job.Error = errText
	job.CompletedAt = &now

	if status == domain.JobStatusSucceeded {
		s.logger.Info("Job succeeded", "jobId", job.ID)
	} else {
		s.logger.Info("Job failed", "jobId", job.ID, "reason", reason)
	}

	if s.archive == nil {
		return
	}
	archived := *job
	go func() {
		archiveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.archive.SaveJob(archiveCtx, &archived); err != nil {
			s.logger.Error("Failed to archive job", "jobId", archived.ID, "error", err)
		}
	}()
}

// drainLocked assigns queued jobs while the head has an eligible worker.
// Only the head is ever considered, which is what keeps the queue FIFO.
func (s *DispatcherService) drainLocked() {
	for {
		head := s.queue.peek()
		if head == nil {
			return
		}
		worker := s.pickWorkerLocked()
		if worker == nil {
			return
		}
		s.queue.pop()
		s.assignLocked(head, worker)
	}
}

// publishLocked pushes a worker snapshot to the fleet state store off the
// lock. Publication is observability only; failures never affect routing.
func (s *DispatcherService) publishLocked(worker *domain.WorkerHandle) {
	if s.fleetPub == nil {
		return
	}
	snapshot := worker.Snapshot()
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.fleetPub.PublishWorker(pubCtx, snapshot); err != nil {
			s.logger.Debug("Failed to publish worker snapshot", "workerId", snapshot.ID, "error", err)
		}
	}()
}
