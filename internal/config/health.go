package config

import (
	"os"
	"time"
)

type HealthConfig struct {
	ProbeInterval    time.Duration
	ProbeTimeout     time.Duration
	FailureThreshold int
	ProbePath        string
}

func NewHealthConfig() *HealthConfig {
	probePath := os.Getenv("PROBE_PATH")
	if probePath == "" {
		// ComfyUI and friends answer this without touching the GPU
		probePath = "/system_stats"
	}
	return &HealthConfig{
		ProbeInterval:    getDurationEnv("PROBE_INTERVAL_SEC", 5*time.Second),
		ProbeTimeout:     getDurationEnv("PROBE_TIMEOUT_SEC", 3*time.Second),
		FailureThreshold: getIntEnv("PROBE_FAILURE_THRESHOLD", 3),
		ProbePath:        probePath,
	}
}
