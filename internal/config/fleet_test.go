package config

import "testing"

func TestNewFleetConfig(t *testing.T) {
	t.Setenv("WORKERS", "0=http://10.0.0.1:8188,1=10.0.0.1:8189")
	t.Setenv("WORKER_MAX_CONCURRENT", "2")

	cfg, err := NewFleetConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Workers) != 2 {
		t.Fatalf("expected 2 workers, got %d", len(cfg.Workers))
	}
	if cfg.Workers[0].ID != 0 || cfg.Workers[0].Addr != "http://10.0.0.1:8188" {
		t.Errorf("unexpected first worker: %+v", cfg.Workers[0])
	}
	// Scheme-less addresses get http:// prepended
	if cfg.Workers[1].Addr != "http://10.0.0.1:8189" {
		t.Errorf("expected scheme added, got %s", cfg.Workers[1].Addr)
	}
	if cfg.MaxConcurrent != 2 {
		t.Errorf("expected max concurrent 2, got %d", cfg.MaxConcurrent)
	}
}

func TestNewFleetConfigRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"empty":        "",
		"no separator": "0http://host:8188",
		"bad id":       "gpu0=http://host:8188",
		"duplicate id": "0=http://host:8188,0=http://host:8189",
	}

	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("WORKERS", value)
			if _, err := NewFleetConfig(); err == nil {
				t.Fatalf("expected error for %q", value)
			}
		})
	}
}

func TestNewFleetConfigDefaultConcurrency(t *testing.T) {
	t.Setenv("WORKERS", "0=http://host:8188")

	cfg, err := NewFleetConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxConcurrent != 1 {
		t.Errorf("GPU workers default to one job at a time, got %d", cfg.MaxConcurrent)
	}
}
