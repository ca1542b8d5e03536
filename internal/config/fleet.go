package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// WorkerSpec is one worker entry from the WORKERS env var. The id is the
// GPU index the worker process is pinned to; the address already encodes
// the host/port binding.
type WorkerSpec struct {
	ID   int
	Addr string
}

type FleetConfig struct {
	Workers       []WorkerSpec
	MaxConcurrent int
}

// NewFleetConfig parses the fleet table from WORKERS, formatted as
// "0=http://host:8188,1=http://host:8189". The fleet is fixed for the
// process lifetime; changing it requires a restart.
func NewFleetConfig() (*FleetConfig, error) {
	raw := os.Getenv("WORKERS")
	if raw == "" {
		return nil, fmt.Errorf("WORKERS not set")
	}

	var specs []WorkerSpec
	seen := make(map[int]bool)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid worker entry %q", entry)
		}
		id, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid worker id %q: %w", parts[0], err)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate worker id %d", id)
		}
		seen[id] = true
		addr := strings.TrimSuffix(parts[1], "/")
		if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
			addr = "http://" + addr
		}
		specs = append(specs, WorkerSpec{ID: id, Addr: addr})
	}

	if len(specs) == 0 {
		return nil, fmt.Errorf("WORKERS is empty")
	}

	return &FleetConfig{
		Workers:       specs,
		MaxConcurrent: getIntEnv("WORKER_MAX_CONCURRENT", 1),
	}, nil
}
