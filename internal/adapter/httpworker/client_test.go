package httpworker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
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

func newTestClient() *Client {
	c := NewClient(&config.HealthConfig{ProbePath: "/system_stats"}, nopLogger{})
	c.pollInterval = 10 * time.Millisecond
	return c
}

func worker(addr string) domain.WorkerHandle {
	return domain.WorkerHandle{ID: 0, Addr: addr, MaxConcurrent: 1}
}

func TestProbeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/system_stats" {
			t.Errorf("unexpected probe path %s", r.URL.Path)
		}
		w.Write([]byte(`{"system":{}}`))
	}))
	defer srv.Close()

	if err := newTestClient().Probe(context.Background(), worker(srv.URL)); err != nil {
		t.Fatalf("expected probe success, got %v", err)
	}
}

func TestProbeNon2xxIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := newTestClient().Probe(context.Background(), worker(srv.URL)); err == nil {
		t.Fatal("expected probe failure on 500")
	}
}

func TestProbeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := newTestClient().Probe(ctx, worker(srv.URL)); err == nil {
		t.Fatal("expected probe failure on timeout")
	}
}

func TestSubmitSynchronousResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/jobs" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad submit body: %v", err)
		}
		json.NewEncoder(w).Encode(submitResponse{ID: req.ID, Result: json.RawMessage(`{"image":"out.png"}`)})
	}))
	defer srv.Close()

	job := domain.NewJob(json.RawMessage(`{"prompt":"cat"}`))
	result, err := newTestClient().SubmitJob(context.Background(), worker(srv.URL), job)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !result.Succeeded() {
		t.Fatalf("expected success, got error %q", result.Err)
	}
	if string(result.Output) != `{"image":"out.png"}` {
		t.Fatalf("unexpected output %s", result.Output)
	}
}

func TestSubmitAcceptedThenPolled(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/jobs":
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(submitResponse{ID: "remote-1", Status: "accepted"})
		case r.Method == http.MethodGet && r.URL.Path == "/jobs/remote-1":
			if atomic.AddInt32(&polls, 1) < 3 {
				json.NewEncoder(w).Encode(submitResponse{ID: "remote-1", Status: "running"})
				return
			}
			json.NewEncoder(w).Encode(submitResponse{ID: "remote-1", Result: json.RawMessage(`{"image":"out.png"}`)})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	job := domain.NewJob(json.RawMessage(`{"prompt":"cat"}`))
	result, err := newTestClient().SubmitJob(context.Background(), worker(srv.URL), job)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !result.Succeeded() {
		t.Fatalf("expected success, got error %q", result.Err)
	}
	if atomic.LoadInt32(&polls) < 3 {
		t.Fatalf("expected at least 3 status polls, got %d", polls)
	}
}

func TestSubmitWorkerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(submitResponse{Error: "CUDA out of memory"})
	}))
	defer srv.Close()

	job := domain.NewJob(json.RawMessage(`{}`))
	result, err := newTestClient().SubmitJob(context.Background(), worker(srv.URL), job)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.Succeeded() {
		t.Fatal("expected worker error")
	}
	if result.Err != "CUDA out of memory" {
		t.Fatalf("unexpected error %q", result.Err)
	}
}

func TestSubmitCancelledWhilePolling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(submitResponse{ID: "remote-1"})
			return
		}
		json.NewEncoder(w).Encode(submitResponse{ID: "remote-1", Status: "running"})
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	job := domain.NewJob(json.RawMessage(`{}`))
	if _, err := newTestClient().SubmitJob(ctx, worker(srv.URL), job); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestCancelJob(t *testing.T) {
	var hit int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/jobs/abc/cancel" {
			atomic.StoreInt32(&hit, 1)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	}))
	defer srv.Close()

	if err := newTestClient().CancelJob(context.Background(), worker(srv.URL), "abc"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if atomic.LoadInt32(&hit) != 1 {
		t.Fatal("cancel endpoint never hit")
	}
}
