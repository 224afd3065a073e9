// Package config loads the engine's JSON-backed configuration, following
// the same singleton/defaults/validate shape the rest of this codebase
// uses for configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultConfigPath is where GetConfig looks when no path is supplied.
const DefaultConfigPath = "config/app.json"

// Config holds every tunable the storage engine exposes.
type Config struct {
	Storage struct {
		RootDir           string `json:"root-dir"`
		MemTableMaxBytes  int64  `json:"mem-table-max-bytes"`
		SparseIndexStep   int    `json:"sparse-index-step"`
		BloomFilterBits   uint32 `json:"bloom-filter-bits"`
		BloomFilterHashes int    `json:"bloom-filter-hashes"`
		SyncWrites        bool   `json:"sync-writes"`
	} `json:"storage"`
}

var (
	instance *Config
	once     sync.Once
)

// GetConfig returns the process-wide singleton config, loading it from
// DefaultConfigPath on first use (creating the file with defaults if it
// does not exist).
func GetConfig() *Config {
	once.Do(func() {
		instance = loadConfig(DefaultConfigPath)
	})
	return instance
}

// Load reads the config from a specific path, bypassing the singleton.
// Used by tests and by callers that want an isolated config.
func Load(path string) (*Config, error) {
	cfg := loadConfig(path)
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfig(path string) *Config {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := defaultConfig()
		_ = saveConfigToFile(cfg, path)
		return cfg
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: failed to read %s, using defaults: %v\n", path, err)
		return defaultConfig()
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: failed to parse %s, using defaults: %v\n", path, err)
		return defaultConfig()
	}
	return &cfg
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Storage.RootDir = "./data"
	cfg.Storage.MemTableMaxBytes = 67_108_864
	cfg.Storage.SparseIndexStep = 100
	cfg.Storage.BloomFilterBits = 100_000
	cfg.Storage.BloomFilterHashes = 3
	cfg.Storage.SyncWrites = true
	return cfg
}

func saveConfigToFile(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	return nil
}

// UpdateConfig validates, persists, and hot-swaps the singleton instance.
func UpdateConfig(newConfig *Config) error {
	if err := validateConfig(newConfig); err != nil {
		return err
	}
	if err := saveConfigToFile(newConfig, DefaultConfigPath); err != nil {
		return err
	}
	instance = newConfig
	return nil
}

func validateConfig(cfg *Config) error {
	if cfg.Storage.RootDir == "" {
		return fmt.Errorf("config: storage.root-dir must not be empty")
	}
	if cfg.Storage.MemTableMaxBytes < 1 {
		return fmt.Errorf("config: storage.mem-table-max-bytes must be at least 1")
	}
	if cfg.Storage.SparseIndexStep < 1 {
		return fmt.Errorf("config: storage.sparse-index-step must be at least 1")
	}
	if cfg.Storage.BloomFilterBits < 1 {
		return fmt.Errorf("config: storage.bloom-filter-bits must be at least 1")
	}
	if cfg.Storage.BloomFilterHashes < 1 {
		return fmt.Errorf("config: storage.bloom-filter-hashes must be at least 1")
	}
	return nil
}
