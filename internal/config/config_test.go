package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8000},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_ThresholdOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Search.DefaultThreshold = 1.5

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for threshold > 1")
	}
	expected := "search.default_threshold must be in [0, 1], got 1.5"
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_DefaultLimitAboveMax(t *testing.T) {
	cfg := validConfig()
	cfg.Search.DefaultLimit = 200

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for default_limit > max_limit")
	}
}

func TestValidate_WatchWithoutSources(t *testing.T) {
	cfg := validConfig()
	cfg.Entities.Watch = true

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for watch without paths")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 30 {
		t.Errorf("expected WriteTimeoutSec=30, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Embedding.QueryInstruction != "query: " {
		t.Errorf("expected QueryInstruction='query: ', got %q", cfg.Embedding.QueryInstruction)
	}
	if cfg.Catalog.KeyPrefix != "reel:" {
		t.Errorf("expected KeyPrefix='reel:', got %q", cfg.Catalog.KeyPrefix)
	}
	if cfg.Catalog.IndexName != "reel:records:idx" {
		t.Errorf("expected IndexName='reel:records:idx', got %q", cfg.Catalog.IndexName)
	}
	if cfg.Catalog.OverFetch != 3 {
		t.Errorf("expected OverFetch=3, got %d", cfg.Catalog.OverFetch)
	}
	if cfg.Search.DefaultLimit != 20 {
		t.Errorf("expected DefaultLimit=20, got %d", cfg.Search.DefaultLimit)
	}
	if cfg.Search.MaxLimit != 100 {
		t.Errorf("expected MaxLimit=100, got %d", cfg.Search.MaxLimit)
	}
	if cfg.Search.DefaultThreshold != 0.65 {
		t.Errorf("expected DefaultThreshold=0.65, got %v", cfg.Search.DefaultThreshold)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Catalog: CatalogConfig{KeyPrefix: "custom:", IndexName: "idx"},
		Search:  SearchConfig{DefaultLimit: 10, MaxLimit: 50, DefaultThreshold: 0.5},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Catalog.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Catalog.KeyPrefix)
	}
	if cfg.Catalog.IndexName != "idx" {
		t.Errorf("expected IndexName='idx', got %q", cfg.Catalog.IndexName)
	}
	if cfg.Search.DefaultThreshold != 0.5 {
		t.Errorf("expected DefaultThreshold=0.5, got %v", cfg.Search.DefaultThreshold)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("REELSEARCH_TEST_KEY", "secret")

	got := string(expandEnvVars([]byte("a: ${REELSEARCH_TEST_KEY}\nb: ${REELSEARCH_UNSET_VAR:-fallback}\nc: ${REELSEARCH_UNSET_VAR}")))
	want := "a: secret\nb: fallback\nc: "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o750); err != nil {
		t.Fatal(err)
	}
	yml := "http:\n  port: 9000\ndatabase:\n  addrs: [\"${REELSEARCH_TEST_ADDR:-redis:6379}\"]\n"
	if err := os.WriteFile(filepath.Join(dir, "config", "unittest.yaml"), []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := Load("unittest")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.HTTP.Port)
	}
	if len(cfg.Database.Addrs) != 1 || cfg.Database.Addrs[0] != "redis:6379" {
		t.Errorf("unexpected addrs %v", cfg.Database.Addrs)
	}
	if cfg.Search.DefaultLimit != 20 {
		t.Errorf("defaults not applied: %d", cfg.Search.DefaultLimit)
	}
}
