package workers

import (
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.com/gpugate.net/internal/core/ports/primary"
	"gitlab.com/gpugate.net/internal/core/ports/secondary"
	"gitlab.com/gpugate.net/internal/core/services/dispatch"
	"gitlab.com/gpugate.net/internal/domain"
	"gitlab.com/gpugate.net/internal/handlers/response"
)

// WorkerHandler exposes fleet state for operators
type WorkerHandler struct {
	dispatcher dispatch.IDispatcherService
	fleetPub   secondary.FleetStatePublisher
	logger     primary.Logger
}

// NewWorkerHandler creates a new worker handler
func NewWorkerHandler(dispatcher dispatch.IDispatcherService, fleetPub secondary.FleetStatePublisher, logger primary.Logger) *WorkerHandler {
	return &WorkerHandler{
		dispatcher: dispatcher,
		fleetPub:   fleetPub,
		logger:     logger,
	}
}

// RegisterRoutes registers the API routes for WorkerHandler
func (h *WorkerHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/workers", h.GetWorkers).Methods("GET")
	router.HandleFunc("/api/workers/published", h.GetPublishedWorkers).Methods("GET")
}

// GetWorkers returns the live in-process view of the fleet
func (h *WorkerHandler) GetWorkers(w http.ResponseWriter, r *http.Request) {
	snapshots := h.dispatcher.FleetSnapshot()
	response.WriteSuccess(w, map[string][]domain.WorkerHandle{"workers": snapshots})
}

// GetPublishedWorkers returns the fleet view from the external state
// store, useful for checking what dashboards on other hosts see
func (h *WorkerHandler) GetPublishedWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.fleetPub.GetFleet(r.Context())
	if err != nil {
		h.logger.Error("Failed to read published fleet state", "error", err)
		response.WriteError(w, response.ErrorMessage{Message: "failed to read fleet state", StatusCode: http.StatusInternalServerError})
		return
	}

	response.WriteSuccess(w, map[string][]*domain.WorkerHandle{"workers": workers})
}
