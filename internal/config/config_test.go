package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad_YAMLOverDefaults(t *testing.T) {
	path := writeFile(t, "pickem.yaml", `
server:
  port: 9090
  base_url: https://pickem.example.com
store:
  backend: firestore
  firestore_project: demo
scoring:
  debounce: 1s
`)

	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Server.BaseURL != "https://pickem.example.com" {
		t.Errorf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Store.Backend != BackendFirestore || cfg.Store.FirestoreProject != "demo" {
		t.Errorf("unexpected store config %+v", cfg.Store)
	}
	if cfg.Scoring.Debounce != time.Second {
		t.Errorf("expected 1s debounce, got %v", cfg.Scoring.Debounce)
	}
	if cfg.Scoring.Concurrency != 4 {
		t.Errorf("expected default concurrency kept, got %d", cfg.Scoring.Concurrency)
	}
	if cfg.Addr() != ":9090" {
		t.Errorf("unexpected addr %q", cfg.Addr())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	if _, err := Load(missing, false); err != nil {
		t.Errorf("expected optional missing file to be ignored, got %v", err)
	}
	if _, err := Load(missing, true); err == nil {
		t.Error("expected error for required missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeFile(t, "bad.yaml", "server: [")

	if _, err := Load(path, true); err == nil {
		t.Error("expected unmarshal error")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PICKEM_PORT":            "7000",
		"PICKEM_BACKEND":         "firestore",
		"GOOGLE_CLOUD_PROJECT":   "from-gcloud",
		"PICKEM_JWT_SECRET":      "s3cret",
		"PICKEM_TOKEN_TTL":       "2h",
		"PICKEM_RATE_PER_SECOND": "0.5",
		"PICKEM_LOG_LEVEL":       "debug",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if cfg.Server.Port != 7000 || cfg.Store.Backend != BackendFirestore {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Store.FirestoreProject != "from-gcloud" {
		t.Errorf("expected project fallback, got %q", cfg.Store.FirestoreProject)
	}
	if cfg.Auth.Secret != "s3cret" || cfg.Auth.TokenTTL != 2*time.Hour {
		t.Errorf("unexpected auth config %+v", cfg.Auth)
	}
	if cfg.RateLimit.PerSecond != 0.5 || cfg.Log.Level != "debug" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	env := map[string]string{
		"PICKEM_PORT":             "eighty",
		"PICKEM_SCORING_DEBOUNCE": "soon",
	}
	cfg := Default()
	err := cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "PICKEM_PORT") || !strings.Contains(err.Error(), "PICKEM_SCORING_DEBOUNCE") {
		t.Errorf("expected both keys reported, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"base url", func(c *Config) { c.Server.BaseURL = "pickem.local" }, "base_url"},
		{"backend", func(c *Config) { c.Store.Backend = "postgres" }, "unknown store.backend"},
		{"sqlite path", func(c *Config) { c.Store.SQLitePath = "" }, "sqlite_path"},
		{"firestore project", func(c *Config) { c.Store.Backend = BackendFirestore }, "firestore_project"},
		{"concurrency", func(c *Config) { c.Scoring.Concurrency = 0 }, "concurrency"},
		{"interval", func(c *Config) { c.Scoring.StatusInterval = 0 }, "status_interval"},
		{"rate", func(c *Config) { c.RateLimit.Burst = 0 }, "rate_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadEnvFiles(t *testing.T) {
	path := writeFile(t, ".env", "PICKEM_TEST_FROM_DOTENV=yes\n")
	t.Cleanup(func() { os.Unsetenv("PICKEM_TEST_FROM_DOTENV") })

	if got := LoadEnvFiles(filepath.Join(t.TempDir(), "missing.env"), path); got != path {
		t.Errorf("expected %s to be loaded, got %q", path, got)
	}
	if os.Getenv("PICKEM_TEST_FROM_DOTENV") != "yes" {
		t.Error("expected variable from .env")
	}
}
