package health

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gitlab.com/gpugate.net/internal/config"
	"gitlab.com/gpugate.net/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

// fakeProbeClient fails probes for worker ids present in failing
type fakeProbeClient struct {
	mu      sync.Mutex
	failing map[int]bool
}

func (c *fakeProbeClient) setFailing(workerID int, failing bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failing[workerID] = failing
}

func (c *fakeProbeClient) Probe(ctx context.Context, worker domain.WorkerHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing[worker.ID] {
		return errors.New("connection refused")
	}
	return nil
}

func (c *fakeProbeClient) SubmitJob(ctx context.Context, worker domain.WorkerHandle, job *domain.Job) (*domain.JobResult, error) {
	return nil, errors.New("not used")
}

func (c *fakeProbeClient) CancelJob(ctx context.Context, worker domain.WorkerHandle, jobID string) error {
	return nil
}

// recordingSink collects probe reports per worker
type recordingSink struct {
	mu      sync.Mutex
	reports map[int][]bool
}

func (s *recordingSink) ReportProbe(ctx context.Context, workerID int, healthy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[workerID] = append(s.reports[workerID], healthy)
}

func (s *recordingSink) last(workerID int) (bool, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.reports[workerID]
	if len(r) == 0 {
		return false, 0
	}
	return r[len(r)-1], len(r)
}

func TestMonitorReportsEveryWorker(t *testing.T) {
	client := &fakeProbeClient{failing: make(map[int]bool)}
	sink := &recordingSink{reports: make(map[int][]bool)}
	workers := []domain.WorkerHandle{
		{ID: 0, Addr: "http://w0"},
		{ID: 1, Addr: "http://w1"},
	}
	cfg := &config.HealthConfig{
		ProbeInterval: 10 * time.Millisecond,
		ProbeTimeout:  50 * time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewHealthMonitor(sink, client, workers, cfg, nopLogger{})
	m.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, n0 := sink.last(0)
		_, n1 := sink.last(1)
		if n0 >= 2 && n1 >= 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	for _, id := range []int{0, 1} {
		healthy, n := sink.last(id)
		if n < 2 {
			t.Fatalf("worker %d: expected repeated probes, got %d", id, n)
		}
		if !healthy {
			t.Errorf("worker %d: expected healthy report", id)
		}
	}
}

func TestMonitorReportsFailuresIndependently(t *testing.T) {
	client := &fakeProbeClient{failing: make(map[int]bool)}
	sink := &recordingSink{reports: make(map[int][]bool)}
	workers := []domain.WorkerHandle{
		{ID: 0, Addr: "http://w0"},
		{ID: 1, Addr: "http://w1"},
	}
	cfg := &config.HealthConfig{
		ProbeInterval: 10 * time.Millisecond,
		ProbeTimeout:  50 * time.Millisecond,
	}

	client.setFailing(0, true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewHealthMonitor(sink, client, workers, cfg, nopLogger{})
	m.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		h0, n0 := sink.last(0)
		h1, n1 := sink.last(1)
		if n0 >= 1 && n1 >= 1 && !h0 && h1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}

	h0, _ := sink.last(0)
	h1, _ := sink.last(1)
	t.Fatalf("expected worker 0 failing and worker 1 healthy, got %v and %v", h0, h1)
}

func TestMonitorStopsOnContextCancel(t *testing.T) {
	client := &fakeProbeClient{failing: make(map[int]bool)}
	sink := &recordingSink{reports: make(map[int][]bool)}
	workers := []domain.WorkerHandle{{ID: 0, Addr: "http://w0"}}
	cfg := &config.HealthConfig{
		ProbeInterval: 5 * time.Millisecond,
		ProbeTimeout:  50 * time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := NewHealthMonitor(sink, client, workers, cfg, nopLogger{})
	m.Start(ctx)

	time.Sleep(30 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)

	_, before := sink.last(0)
	time.Sleep(30 * time.Millisecond)
	_, after := sink.last(0)

	if after != before {
		t.Fatalf("probe loop kept running after cancel: %d -> %d reports", before, after)
	}
}
