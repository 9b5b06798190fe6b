package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if got, want := cfg.Engine.BufferPreset, "balanced"; got != want {
		t.Errorf("BufferPreset = %q, want %q", got, want)
	}
	if got, want := cfg.Latency.PollIntervalMs, 100; got != want {
		t.Errorf("Latency.PollIntervalMs = %d, want %d", got, want)
	}
	if got, want := cfg.Latency.TimeoutMs, 5000; got != want {
		t.Errorf("Latency.TimeoutMs = %d, want %d", got, want)
	}
	if got, want := cfg.Status.PollIntervalMs, 500; got != want {
		t.Errorf("Status.PollIntervalMs = %d, want %d", got, want)
	}
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "engine:\n  library_path: /opt/boojy/libboojy_engine.so\nlatency:\n  timeout_ms: 10000\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if got, want := cfg.Engine.LibraryPath, "/opt/boojy/libboojy_engine.so"; got != want {
		t.Errorf("LibraryPath = %q, want %q", got, want)
	}
	if got, want := cfg.Latency.TimeoutMs, 10000; got != want {
		t.Errorf("Latency.TimeoutMs = %d, want %d", got, want)
	}
	// Untouched fields keep their defaults
	if got, want := cfg.Latency.PollIntervalMs, 100; got != want {
		t.Errorf("Latency.PollIntervalMs = %d, want %d", got, want)
	}
	if got, want := cfg.Engine.BufferPreset, "balanced"; got != want {
		t.Errorf("BufferPreset = %q, want %q", got, want)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("engine: ["), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig accepted invalid YAML, want error")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Engine.BufferPreset = "safe"
	cfg.Status.PollIntervalMs = 250

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig returned error: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if got, want := loaded.Engine.BufferPreset, "safe"; got != want {
		t.Errorf("BufferPreset = %q, want %q", got, want)
	}
	if got, want := loaded.Status.PollIntervalMs, 250; got != want {
		t.Errorf("Status.PollIntervalMs = %d, want %d", got, want)
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := DefaultConfig()
	if got, want := cfg.LatencyPollInterval(), 100*time.Millisecond; got != want {
		t.Errorf("LatencyPollInterval() = %v, want %v", got, want)
	}
	if got, want := cfg.LatencyTimeout(), 5*time.Second; got != want {
		t.Errorf("LatencyTimeout() = %v, want %v", got, want)
	}

	// Non-positive values fall back to sane defaults
	cfg.Latency.PollIntervalMs = 0
	cfg.Latency.TimeoutMs = -1
	cfg.Status.PollIntervalMs = 0
	if got, want := cfg.LatencyPollInterval(), 100*time.Millisecond; got != want {
		t.Errorf("LatencyPollInterval() = %v, want %v", got, want)
	}
	if got, want := cfg.LatencyTimeout(), 5*time.Second; got != want {
		t.Errorf("LatencyTimeout() = %v, want %v", got, want)
	}
	if got, want := cfg.StatusPollInterval(), 500*time.Millisecond; got != want {
		t.Errorf("StatusPollInterval() = %v, want %v", got, want)
	}
}
