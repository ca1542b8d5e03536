package config

import (
	"os"
	"strconv"
	"time"
)

type DispatchConfig struct {
	QueueCapacity int
	GracePeriod   time.Duration
	Retention     time.Duration
	ReapInterval  time.Duration
}

func NewDispatchConfig(fleet *FleetConfig) *DispatchConfig {
	defaultCap := 4 * len(fleet.Workers)
	return &DispatchConfig{
		QueueCapacity: getIntEnv("QUEUE_CAPACITY", defaultCap),
		GracePeriod:   getDurationEnv("WORKER_LOST_GRACE_SEC", 10*time.Second),
		Retention:     getDurationEnv("JOB_RETENTION_SEC", 10*time.Minute),
		ReapInterval:  getDurationEnv("JOB_REAP_INTERVAL_SEC", time.Minute),
	}
}

// getIntEnv gets an environment variable as an integer with a fallback
func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

// getDurationEnv gets an environment variable in seconds with a fallback
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if sec, err := strconv.Atoi(value); err == nil {
			return time.Duration(sec) * time.Second
		}
	}
	return fallback
}
