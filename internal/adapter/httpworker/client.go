package httpworker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"gitlab.com/gpugate.net/internal/config"
	"gitlab.com/gpugate.net/internal/core/ports/primary"
	"gitlab.com/gpugate.net/internal/core/ports/secondary"
	"gitlab.com/gpugate.net/internal/domain"
)

const (
	submitPath = "/jobs"
	statusPath = "/jobs/%s"
	cancelPath = "/jobs/%s/cancel"

	defaultPollInterval = time.Second
)

var _ secondary.WorkerClient = &Client{}

// Client talks to one backend worker process over HTTP. Generation jobs can
// run for minutes, so the underlying http.Client carries no global timeout;
// every call is bounded by its context instead.
type Client struct {
	httpClient   *http.Client
	probePath    string
	pollInterval time.Duration
	logger       primary.Logger
}

// NewClient creates a worker client using the probe path from config
func NewClient(healthCfg *config.HealthConfig, logger primary.Logger) *Client {
	return &Client{
		httpClient:   &http.Client{},
		probePath:    healthCfg.ProbePath,
		pollInterval: defaultPollInterval,
		logger:       logger,
	}
}

// Probe performs a liveness call; any non-2xx status or transport error
// counts as a probe failure.
func (c *Client) Probe(ctx context.Context, worker domain.WorkerHandle) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, worker.Addr+c.probePath, nil)
	if err != nil {
		return fmt.Errorf("failed to build probe request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("probe failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("probe returned status %d", resp.StatusCode)
	}
	return nil
}

// submitRequest is the body sent to the worker's job endpoint
type submitRequest struct {
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

// submitResponse covers both worker reply modes: a synchronous result for
// small/fast jobs, or an acceptance that the client then polls to completion.
type submitResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// SubmitJob forwards the job and blocks until the worker produces a terminal
// result or ctx is cancelled.
func (c *Client) SubmitJob(ctx context.Context, worker domain.WorkerHandle, job *domain.Job) (*domain.JobResult, error) {
	body, err := json.Marshal(submitRequest{ID: job.ID.String(), Payload: job.Payload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, worker.Addr+submitPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build job request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to submit job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("job submission returned status %d", resp.StatusCode)
	}

	var submitResp submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&submitResp); err != nil {
		return nil, fmt.Errorf("failed to decode job response: %w", err)
	}

	// Synchronous result: the worker finished before answering
	if resp.StatusCode == http.StatusOK && (submitResp.Result != nil || submitResp.Error != "") {
		return &domain.JobResult{Output: submitResp.Result, Err: submitResp.Error}, nil
	}

	// Asynchronous acceptance: poll the worker until the job is terminal
	remoteID := submitResp.ID
	if remoteID == "" {
		remoteID = job.ID.String()
	}
	c.logger.Debug("Job accepted by worker, polling for result", "jobId", job.ID, "workerId", worker.ID)
	return c.pollResult(ctx, worker, remoteID)
}

// pollResult polls the worker's status endpoint until the job is terminal
func (c *Client) pollResult(ctx context.Context, worker domain.WorkerHandle, remoteID string) (*domain.JobResult, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	statusURL := worker.Addr + fmt.Sprintf(statusPath, remoteID)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build status request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to poll job status: %w", err)
		}

		var statusResp submitResponse
		err = json.NewDecoder(resp.Body).Decode(&statusResp)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode job status: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("job status returned status %d", resp.StatusCode)
		}

		if statusResp.Result != nil || statusResp.Error != "" {
			return &domain.JobResult{Output: statusResp.Result, Err: statusResp.Error}, nil
		}
	}
}

// CancelJob asks the worker to stop a running job. Best effort.
func (c *Client) CancelJob(ctx context.Context, worker domain.WorkerHandle, jobID string) error {
	cancelURL := worker.Addr + fmt.Sprintf(cancelPath, jobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cancelURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build cancel request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send cancel: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("cancel returned status %d", resp.StatusCode)
	}
	return nil
}
