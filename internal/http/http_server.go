package http

// this is entry point of the http request handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"

	"gitlab.com/gpugate.net/internal/config"
	"gitlab.com/gpugate.net/internal/core/ports/primary"
	"gitlab.com/gpugate.net/internal/core/ports/secondary"
	"gitlab.com/gpugate.net/internal/core/services/dispatch"
	"gitlab.com/gpugate.net/internal/handlers"
	"gitlab.com/gpugate.net/internal/handlers/jobs"
	"gitlab.com/gpugate.net/internal/handlers/workers"
)

type ServiceProvider struct {
	dispatcher dispatch.IDispatcherService
	fleetPub   secondary.FleetStatePublisher
}

func NewServiceProvider(
	dispatcher dispatch.IDispatcherService,
	fleetPub secondary.FleetStatePublisher,
) *ServiceProvider {
	return &ServiceProvider{
		dispatcher: dispatcher,
		fleetPub:   fleetPub,
	}
}

type Server struct {
	router          *mux.Router
	srv             *http.Server
	Port            int
	ServiceName     string
	ServiceProvider ServiceProvider
	authCfg         *config.AuthConfig
	logger          primary.Logger
}

func NewServer(port int, serviceName string, serviceProvider ServiceProvider, authCfg *config.AuthConfig, logger primary.Logger) *Server {
	return &Server{
		Port:            port,
		ServiceName:     serviceName,
		ServiceProvider: serviceProvider,
		authCfg:         authCfg,
		logger:          logger,
	}
}

func (s *Server) Init() error {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	api := r.PathPrefix("/").Subrouter()
	api.Use(handlers.New(s.authCfg).AuthMiddleware)
	jobs.NewJobHandler(s.ServiceProvider.dispatcher, s.logger).RegisterRoutes(api)
	workers.NewWorkerHandler(s.ServiceProvider.dispatcher, s.ServiceProvider.fleetPub, s.logger).RegisterRoutes(api)

	s.router = r
	return nil
}

func (s *Server) Start(ctx context.Context) {
	// Generation results can be large; write timeout stays generous
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start the server in a goroutine
	go func() {
		s.logger.Info("Server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()
}

func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("Shutting down http server...")
	if s.srv == nil {
		return
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Error("Server forced to shutdown", "error", err)
	}
}
