// Package config provides configuration loading and validation for the
// service and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config represents service configuration, loadable from a JSON file with
// environment variable overrides. All fields are optional; missing values
// use defaults.
type Config struct {
	// Service
	Port        int    `json:"port,omitempty"`         // HTTP listen port
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL

	// Archive (S3-compatible object storage for raw search payloads)
	ArchiveEndpoint  string `json:"archive_endpoint,omitempty"`
	ArchiveAccessKey string `json:"archive_access_key,omitempty"`
	ArchiveSecretKey string `json:"archive_secret_key,omitempty"`
	ArchiveBucket    string `json:"archive_bucket,omitempty"`
	ArchiveRegion    string `json:"archive_region,omitempty"`
	ArchiveUseSSL    bool   `json:"archive_use_ssl,omitempty"`

	// Pipeline
	EnrichDelayMS     int  `json:"enrich_delay_ms,omitempty"`     // Pause between model calls
	SearchResultCount int  `json:"search_result_count,omitempty"` // Organic results per search
	WorkerConcurrency int  `json:"worker_concurrency,omitempty"`  // Concurrent run processing
	UseBrowser        bool `json:"use_browser,omitempty"`         // Headless browser for SPA sites
	Verbose           bool `json:"verbose,omitempty"`             // Print detailed debug information
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		Port:              8080,
		ArchiveBucket:     "outpost-archive",
		ArchiveRegion:     "us-east-1",
		EnrichDelayMS:     2000,
		SearchResultCount: 10,
		WorkerConcurrency: 2,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv returns configuration read from environment variables. Only
// variables that are set produce non-zero fields.
func FromEnv() Config {
	return Config{
		Port:              envInt("PORT"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		ArchiveEndpoint:   os.Getenv("ARCHIVE_ENDPOINT"),
		ArchiveAccessKey:  os.Getenv("ARCHIVE_ACCESS_KEY"),
		ArchiveSecretKey:  os.Getenv("ARCHIVE_SECRET_KEY"),
		ArchiveBucket:     os.Getenv("ARCHIVE_BUCKET"),
		ArchiveRegion:     os.Getenv("ARCHIVE_REGION"),
		ArchiveUseSSL:     envBool("ARCHIVE_USE_SSL"),
		EnrichDelayMS:     envInt("ENRICH_DELAY_MS"),
		SearchResultCount: envInt("SEARCH_RESULT_COUNT"),
		WorkerConcurrency: envInt("WORKER_CONCURRENCY"),
		UseBrowser:        envBool("USE_BROWSER"),
		Verbose:           envBool("VERBOSE"),
	}
}

// Merge returns a new Config with zero-valued fields filled from defaults.
// Precedence when stacking: c wins over defaults.
func (c Config) Merge(defaults Config) Config {
	result := c

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.ArchiveEndpoint == "" {
		result.ArchiveEndpoint = defaults.ArchiveEndpoint
	}
	if result.ArchiveAccessKey == "" {
		result.ArchiveAccessKey = defaults.ArchiveAccessKey
	}
	if result.ArchiveSecretKey == "" {
		result.ArchiveSecretKey = defaults.ArchiveSecretKey
	}
	if result.ArchiveBucket == "" {
		result.ArchiveBucket = defaults.ArchiveBucket
	}
	if result.ArchiveRegion == "" {
		result.ArchiveRegion = defaults.ArchiveRegion
	}
	if !result.ArchiveUseSSL {
		result.ArchiveUseSSL = defaults.ArchiveUseSSL
	}
	if result.EnrichDelayMS == 0 {
		result.EnrichDelayMS = defaults.EnrichDelayMS
	}
	if result.SearchResultCount == 0 {
		result.SearchResultCount = defaults.SearchResultCount
	}
	if result.WorkerConcurrency == 0 {
		result.WorkerConcurrency = defaults.WorkerConcurrency
	}
	if !result.UseBrowser {
		result.UseBrowser = defaults.UseBrowser
	}
	if !result.Verbose {
		result.Verbose = defaults.Verbose
	}

	return result
}

// Load builds the effective configuration: defaults, overlaid by an optional
// JSON file, overlaid by environment variables.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return Config{}, err
		}
		cfg = fileCfg.Merge(cfg)
	}

	cfg = FromEnv().Merge(cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration has valid values.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.EnrichDelayMS < 0 {
		return fmt.Errorf("config error: 'enrich_delay_ms' must be non-negative")
	}
	if c.SearchResultCount < 0 {
		return fmt.Errorf("config error: 'search_result_count' must be non-negative")
	}
	if c.WorkerConcurrency < 0 {
		return fmt.Errorf("config error: 'worker_concurrency' must be non-negative")
	}
	return nil
}

// ArchiveConfigured reports whether enough settings are present to enable
// the archive stage.
func (c Config) ArchiveConfigured() bool {
	return c.ArchiveEndpoint != "" && c.ArchiveAccessKey != "" && c.ArchiveSecretKey != ""
}

func envInt(name string) int {
	value := os.Getenv(name)
	if value == "" {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

func envBool(name string) bool {
	value := os.Getenv(name)
	return value == "1" || value == "true" || value == "yes"
}
