// Package config loads and validates the pre-signer process's on-disk
// configuration, in the style of the teacher's node config loader.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tolelom/ecdsapresign/types"
)

// Config holds everything a presigner process needs to start: its own
// identity, the registry version it trusts, where to persist its
// artifact pool, and how often to tick.
type Config struct {
	NodeID          string `json:"node_id"`
	RegistryVersion uint64 `json:"registry_version"`
	DataDir         string `json:"data_dir"`
	TickIntervalMS  int    `json:"tick_interval_ms"` // 0 -> 1000
	MetricsAddr     string `json:"metrics_addr,omitempty"`
}

// DefaultConfig returns a single-node development configuration.
func DefaultConfig() *Config {
	return &Config{
		NodeID:          "node0",
		RegistryVersion: 1,
		DataDir:         "./data",
		TickIntervalMS:  1000,
	}
}

// Load reads a JSON config file from path, applies it over
// DefaultConfig, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.TickIntervalMS == 0 {
		cfg.TickIntervalMS = 1000
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required fields are present and well-formed.
func (c *Config) Validate() error {
	if c.NodeID == "" {
		return fmt.Errorf("node_id must not be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.RegistryVersion == 0 {
		return fmt.Errorf("registry_version must be non-zero")
	}
	if c.TickIntervalMS < 0 {
		return fmt.Errorf("tick_interval_ms must not be negative, got %d", c.TickIntervalMS)
	}
	return nil
}

// NodeIdentity returns the configured node ID as a types.NodeID.
func (c *Config) NodeIdentity() types.NodeID {
	return types.NodeID(c.NodeID)
}

// Save writes the config to path as formatted JSON.
func Save(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
