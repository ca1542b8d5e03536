package dispatch

import (
	"github.com/google/uuid"

	"gitlab.com/gpugate.net/internal/domain"
	"gitlab.com/gpugate.net/internal/static/errs"
)

// admissionQueue is a bounded strict-FIFO buffer for jobs waiting on worker
// capacity. Not safe for concurrent use; callers hold the dispatcher's lock.
type admissionQueue struct {
	items    []*domain.Job
	capacity int
}

func newAdmissionQueue(capacity int) *admissionQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &admissionQueue{
		items:    make([]*domain.Job, 0, capacity),
		capacity: capacity,
	}
}

// push appends a job, failing with QueueFull at capacity. That failure is
// the system's backpressure signal.
func (q *admissionQueue) push(job *domain.Job) error {
	if len(q.items) >= q.capacity {
		return errs.QueueFull
	}
	q.items = append(q.items, job)
	return nil
}

// peek returns the head without removing it, nil when empty
func (q *admissionQueue) peek() *domain.Job {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// pop removes and returns the head, nil when empty
func (q *admissionQueue) pop() *domain.Job {
	if len(q.items) == 0 {
		return nil
	}
	head := q.items[0]
	q.items = q.items[1:]
	return head
}

// remove deletes a queued job by id, preserving the order of the rest
func (q *admissionQueue) remove(jobID uuid.UUID) bool {
	for i, job := range q.items {
		if job.ID == jobID {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

func (q *admissionQueue) size() int {
	return len(q.items)
}
