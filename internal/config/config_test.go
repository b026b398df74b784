package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Run from an empty dir so no stray .env or config file is picked up
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.URL != "http://localhost:8000" {
		t.Errorf("Backend.URL = %s, want http://localhost:8000", cfg.Backend.URL)
	}
	if cfg.Routing.Debounce != 300*time.Millisecond {
		t.Errorf("Routing.Debounce = %v, want 300ms", cfg.Routing.Debounce)
	}
	if cfg.Poll.Interval != 15*time.Second {
		t.Errorf("Poll.Interval = %v, want 15s", cfg.Poll.Interval)
	}
	if cfg.Emergency.Phone != "8848932872" {
		t.Errorf("Emergency.Phone = %s", cfg.Emergency.Phone)
	}
	if cfg.TrafficEnabled() {
		t.Error("traffic overlay should be disabled without an API key")
	}
	if !cfg.PredictionsEnabled() {
		t.Error("predictions should be enabled with the default backend")
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "nav.yaml")
	yaml := []byte("backend:\n  url: http://predict.internal:9000\npoll:\n  interval: 30s\n")
	if err := os.WriteFile(path, yaml, 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	t.Setenv("PORTNAV_TRAFFIC_API_KEY", "abc123")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.URL != "http://predict.internal:9000" {
		t.Errorf("Backend.URL = %s", cfg.Backend.URL)
	}
	if cfg.Poll.Interval != 30*time.Second {
		t.Errorf("Poll.Interval = %v, want 30s", cfg.Poll.Interval)
	}
	if cfg.Traffic.APIKey != "abc123" || !cfg.TrafficEnabled() {
		t.Errorf("Traffic.APIKey = %q, want abc123 from env", cfg.Traffic.APIKey)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PORTNAV_EMERGENCY_PHONE=100\n"), 0644); err != nil {
		t.Fatalf("writing .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("PORTNAV_EMERGENCY_PHONE") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Emergency.Phone != "100" {
		t.Errorf("Emergency.Phone = %s, want 100 from .env", cfg.Emergency.Phone)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Poll.Interval != 15*time.Second {
		t.Errorf("Poll.Interval = %v, want 15s", cfg.Poll.Interval)
	}
	if cfg.Emergency.Phone != "8848932872" {
		t.Errorf("Emergency.Phone = %q", cfg.Emergency.Phone)
	}
	if cfg.TrafficEnabled() {
		t.Error("traffic should be off without an API key")
	}
	if !cfg.PredictionsEnabled() {
		t.Error("predictions should default to the local backend")
	}
}
