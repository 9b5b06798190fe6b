package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// Native engine settings
	Engine EngineConfig `yaml:"engine"`

	// Latency test settings
	Latency LatencyConfig `yaml:"latency"`

	// Status polling settings
	Status StatusConfig `yaml:"status"`
}

// EngineConfig represents native engine settings
type EngineConfig struct {
	// Path to the engine shared library (empty: resolve automatically)
	LibraryPath string `yaml:"library_path,omitempty"`

	// Buffer size preset applied at startup: lowest, low, balanced, safe, high-stability
	BufferPreset string `yaml:"buffer_preset"`
}

// LatencyConfig represents latency test settings
type LatencyConfig struct {
	PollIntervalMs int `yaml:"poll_interval_ms"`
	TimeoutMs      int `yaml:"timeout_ms"`
}

// StatusConfig represents status polling settings
type StatusConfig struct {
	PollIntervalMs int `yaml:"poll_interval_ms"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			LibraryPath:  "",
			BufferPreset: "balanced",
		},
		Latency: LatencyConfig{
			PollIntervalMs: 100,
			TimeoutMs:      5000,
		},
		Status: StatusConfig{
			PollIntervalMs: 500,
		},
	}
}

// LoadConfig loads configuration from file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, return default config
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to file
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LatencyPollInterval returns the latency test poll interval as a duration
func (c *Config) LatencyPollInterval() time.Duration {
	if c.Latency.PollIntervalMs <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(c.Latency.PollIntervalMs) * time.Millisecond
}

// LatencyTimeout returns the latency test timeout as a duration
func (c *Config) LatencyTimeout() time.Duration {
	if c.Latency.TimeoutMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Latency.TimeoutMs) * time.Millisecond
}

// StatusPollInterval returns the status poll interval as a duration
func (c *Config) StatusPollInterval() time.Duration {
	if c.Status.PollIntervalMs <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.Status.PollIntervalMs) * time.Millisecond
}
