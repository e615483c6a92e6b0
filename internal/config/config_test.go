package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `{
		"port": 9090,
		"database_url": "postgres://localhost/outpost",
		"enrich_delay_ms": 500,
		"use_browser": true
	}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://localhost/outpost" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.EnrichDelayMS != 500 {
		t.Errorf("EnrichDelayMS = %d, want 500", cfg.EnrichDelayMS)
	}
	if !cfg.UseBrowser {
		t.Error("UseBrowser = false, want true")
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Error("expected error for empty path")
	}
	if _, err := LoadConfig("/nonexistent/config.json"); err == nil {
		t.Error("expected error for missing file")
	}
	path := writeConfig(t, `{not valid json`)
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestMerge(t *testing.T) {
	cfg := Config{Port: 9090}.Merge(Defaults())

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want explicit 9090", cfg.Port)
	}
	if cfg.EnrichDelayMS != 2000 {
		t.Errorf("EnrichDelayMS = %d, want default 2000", cfg.EnrichDelayMS)
	}
	if cfg.SearchResultCount != 10 {
		t.Errorf("SearchResultCount = %d, want default 10", cfg.SearchResultCount)
	}
	if cfg.WorkerConcurrency != 2 {
		t.Errorf("WorkerConcurrency = %d, want default 2", cfg.WorkerConcurrency)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `{"port": 9090, "enrich_delay_ms": 500}`)
	t.Setenv("PORT", "7070")
	t.Setenv("DATABASE_URL", "postgres://env/outpost")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 7070 {
		t.Errorf("Port = %d, want env override 7070", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://env/outpost" {
		t.Errorf("DatabaseURL = %q, want env value", cfg.DatabaseURL)
	}
	if cfg.EnrichDelayMS != 500 {
		t.Errorf("EnrichDelayMS = %d, want file value 500", cfg.EnrichDelayMS)
	}
}

func TestValidate(t *testing.T) {
	bad := []Config{
		{Port: -1},
		{Port: 70000},
		{EnrichDelayMS: -5},
		{SearchResultCount: -1},
		{WorkerConcurrency: -2},
	}
	for _, cfg := range bad {
		if err := cfg.Validate(); err == nil {
			t.Errorf("expected validation error for %+v", cfg)
		}
	}

	if err := Defaults().Validate(); err != nil {
		t.Errorf("Defaults should validate, got %v", err)
	}
}

func TestArchiveConfigured(t *testing.T) {
	cfg := Defaults()
	if cfg.ArchiveConfigured() {
		t.Error("archive should not be configured by default")
	}

	cfg.ArchiveEndpoint = "minio:9000"
	cfg.ArchiveAccessKey = "ak"
	cfg.ArchiveSecretKey = "sk"
	if !cfg.ArchiveConfigured() {
		t.Error("archive should be configured with endpoint and credentials")
	}
}
