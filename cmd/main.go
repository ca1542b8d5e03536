package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"gitlab.com/gpugate.net/internal/adapter/httpworker"
	"gitlab.com/gpugate.net/internal/adapter/postgres/jobhistory"
	"gitlab.com/gpugate.net/internal/adapter/redis/fleetstate"
	"gitlab.com/gpugate.net/internal/config"
	"gitlab.com/gpugate.net/internal/core/ports/primary"
	"gitlab.com/gpugate.net/internal/core/services/dispatch"
	"gitlab.com/gpugate.net/internal/core/services/health"
	logger2 "gitlab.com/gpugate.net/internal/global/logger"
	http2 "gitlab.com/gpugate.net/internal/http"
)

func main() {
	InitReader()

	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	logger2.Info("Starting gpugate fleet gateway")

	logger := logger2.Logger

	sysCfg, err := config.NewSystemConfig()
	if err != nil {
		panic(err)
	}

	db, err := setupDatabase(sysCfg)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     sysCfg.RedisConfig.Url,
		Password: sysCfg.RedisConfig.Password,
		DB:       sysCfg.RedisConfig.DB,
	})
	defer redisClient.Close()

	// SECONDARY PORTS
	fleetPub := fleetstate.NewPublisher(redisClient, logger)
	jobArchive := jobhistory.NewJobHistory(db, logger)
	workerClient := httpworker.NewClient(sysCfg.HealthConfig, logger)

	// services
	dispatcher := dispatch.NewDispatcherService(
		sysCfg.FleetConfig,
		sysCfg.DispatchConfig,
		sysCfg.HealthConfig,
		workerClient,
		jobArchive,
		fleetPub,
		logger,
	)
	monitor := health.NewHealthMonitor(dispatcher, workerClient, dispatcher.FleetSnapshot(), sysCfg.HealthConfig, logger)
	serviceProvider := http2.NewServiceProvider(dispatcher, fleetPub)

	// server
	httServer := http2.NewServer(sysCfg.HTTPPort, "gpugate", *serviceProvider, sysCfg.AuthConfig, logger)
	if err := httServer.Init(); err != nil {
		panic(err)
	}

	ctxBg, cancel := context.WithCancel(context.Background())
	httServer.Start(ctxBg)
	monitor.Start(ctxBg)
	startJanitorTasks(ctxBg, dispatcher, sysCfg.DispatchConfig, logger)

	logger.Info("Fleet gateway ready", "workers", len(sysCfg.FleetConfig.Workers), "queueCapacity", sysCfg.DispatchConfig.QueueCapacity)

	<-quit
	logger.Info("Shutting down server...")
	cancel()

	ctx, cancelStop := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelStop()
	httServer.Stop(ctx)

	logger.Info("successfully shutdown server")
}

// setupDatabase sets up the PostgreSQL connection for the job archive
func setupDatabase(cfg *config.AppConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.PostgresConfig.Url)
	if err != nil {
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

// startJanitorTasks starts the terminal-job retention reaper
func startJanitorTasks(ctx context.Context, dispatcher dispatch.IDispatcherService, cfg *config.DispatchConfig, logger primary.Logger) {
	go func() {
		ticker := time.NewTicker(cfg.ReapInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				dispatcher.ReapTerminalJobs(ctx)
			}
		}
	}()
	logger.Info("Janitor tasks started", "reapInterval", cfg.ReapInterval, "retention", cfg.Retention)
}

func InitReader() {
	if len(os.Args) < 2 {
		// No env file argument; rely on the process environment
		return
	}
	environment := os.Args[1]

	err := godotenv.Load(environment + ".env")
	if err != nil {
		log.Fatalf("Error loading %s.env file", environment)
	}
}
