package jobs

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"gitlab.com/gpugate.net/internal/core/ports/primary"
	"gitlab.com/gpugate.net/internal/core/services/dispatch"
	"gitlab.com/gpugate.net/internal/handlers/response"
	"gitlab.com/gpugate.net/internal/static/errs"
)

// retryAfterSec is the hint returned with capacity rejections
const retryAfterSec = "5"

// JobHandler handles job API requests
type JobHandler struct {
	dispatcher dispatch.IDispatcherService
	logger     primary.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(dispatcher dispatch.IDispatcherService, logger primary.Logger) *JobHandler {
	return &JobHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RegisterRoutes registers the API routes for JobHandler
func (h *JobHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/jobs", h.SubmitJob).Methods("POST")
	router.HandleFunc("/api/jobs/{jobId}", h.GetJob).Methods("GET")
	router.HandleFunc("/api/jobs/{jobId}", h.CancelJob).Methods("DELETE")
}

// SubmitJob handles job submission requests
func (h *JobHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request", "error", err)
		response.WriteError(w, response.ErrorMessage{Message: errs.InvalidPayload.Error(), StatusCode: http.StatusBadRequest})
		return
	}

	if len(req.Payload) == 0 || string(req.Payload) == "null" || !json.Valid(req.Payload) {
		response.WriteError(w, response.ErrorMessage{Message: errs.InvalidPayload.Error(), StatusCode: http.StatusBadRequest})
		return
	}

	job, err := h.dispatcher.Submit(r.Context(), req.Payload)
	if err != nil {
		if errors.Is(err, errs.QueueFull) {
			w.Header().Set("Retry-After", retryAfterSec)
			response.WriteError(w, response.ErrorMessage{Message: errs.QueueFull.Error(), StatusCode: http.StatusServiceUnavailable})
			return
		}
		h.logger.Error("Failed to submit job", "error", err)
		response.WriteError(w, response.ErrorMessage{Message: errs.InternalError.Error(), StatusCode: http.StatusInternalServerError})
		return
	}

	response.WriteJSON(w, http.StatusAccepted, CreateJobResponse{
		JobID:  job.ID,
		Status: job.Status,
	})
}

// GetJob handles job state polling requests
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobIDStr := vars["jobId"]

	jobID, err := uuid.Parse(jobIDStr)
	if err != nil {
		h.logger.Error("Invalid job ID", "id", jobIDStr)
		response.WriteError(w, response.ErrorMessage{Message: "invalid job id", StatusCode: http.StatusBadRequest})
		return
	}

	job, err := h.dispatcher.Poll(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, errs.UnknownJob) {
			response.WriteError(w, response.ErrorMessage{Message: errs.UnknownJob.Error(), StatusCode: http.StatusNotFound})
			return
		}
		h.logger.Error("Failed to poll job", "jobId", jobID, "error", err)
		response.WriteError(w, response.ErrorMessage{Message: errs.InternalError.Error(), StatusCode: http.StatusInternalServerError})
		return
	}

	response.WriteSuccess(w, job)
}

// CancelJob handles job cancellation requests
func (h *JobHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobIDStr := vars["jobId"]

	jobID, err := uuid.Parse(jobIDStr)
	if err != nil {
		h.logger.Error("Invalid job ID", "id", jobIDStr)
		response.WriteError(w, response.ErrorMessage{Message: "invalid job id", StatusCode: http.StatusBadRequest})
		return
	}

	cancelled, err := h.dispatcher.Cancel(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, errs.UnknownJob) {
			response.WriteError(w, response.ErrorMessage{Message: errs.UnknownJob.Error(), StatusCode: http.StatusNotFound})
			return
		}
		h.logger.Error("Failed to cancel job", "jobId", jobID, "error", err)
		response.WriteError(w, response.ErrorMessage{Message: errs.InternalError.Error(), StatusCode: http.StatusInternalServerError})
		return
	}

	response.WriteSuccess(w, CancelJobResponse{Cancelled: cancelled})
}
