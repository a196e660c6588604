package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/IshaanNene/sitebrief/internal/types"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Crawl.Concurrency != 1 {
		t.Errorf("expected sequential crawl by default, got concurrency %d", cfg.Crawl.Concurrency)
	}
	if cfg.Summarize.TokenThreshold != 14000 {
		t.Errorf("expected token threshold 14000, got %d", cfg.Summarize.TokenThreshold)
	}
	if cfg.Summarize.MinLength != 30 {
		t.Errorf("expected min length 30, got %d", cfg.Summarize.MinLength)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max pages", func(c *Config) { c.Crawl.MaxPages = 0 }},
		{"zero concurrency", func(c *Config) { c.Crawl.Concurrency = 0 }},
		{"zero timeout", func(c *Config) { c.Crawl.RequestTimeout = 0 }},
		{"negative retries", func(c *Config) { c.Crawl.MaxRetries = -1 }},
		{"bad extract format", func(c *Config) { c.Extract.Format = "pdf" }},
		{"bad provider", func(c *Config) { c.Summarize.Provider = "bard" }},
		{"map_reduce is not a preference", func(c *Config) { c.Summarize.Strategy = "map_reduce" }},
		{"overlap too big", func(c *Config) { c.Summarize.ChunkOverlap = c.Summarize.ChunkSize }},
		{"bad storage", func(c *Config) { c.Storage.Type = "sqlite" }},
		{"mongo without uri", func(c *Config) { c.Storage.Type = "mongodb" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }},
		{"bad metrics port", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Port = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url   string
		valid bool
	}{
		{"https://example.com", true},
		{"http://example.com/about", true},
		{"ftp://example.com", false},
		{"example.com", false},
		{"https://", false},
		{"://bad", false},
	}

	for _, tt := range tests {
		err := ValidateURL(tt.url)
		if tt.valid && err != nil {
			t.Errorf("ValidateURL(%q) unexpected error: %v", tt.url, err)
		}
		if !tt.valid {
			if err == nil {
				t.Errorf("ValidateURL(%q) expected error", tt.url)
			} else if !errors.Is(err, types.ErrInvalidURL) {
				t.Errorf("ValidateURL(%q) error should wrap ErrInvalidURL: %v", tt.url, err)
			}
		}
	}
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sitebrief.yaml")
	content := []byte("crawl:\n  max_pages: 12\n  request_timeout: 5s\nsummarize:\n  model: mistral\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SITEBRIEF_CRAWL_CONCURRENCY", "3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Crawl.MaxPages != 12 {
		t.Errorf("expected max_pages 12 from file, got %d", cfg.Crawl.MaxPages)
	}
	if cfg.Crawl.RequestTimeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.Crawl.RequestTimeout)
	}
	if cfg.Crawl.Concurrency != 3 {
		t.Errorf("expected concurrency 3 from env, got %d", cfg.Crawl.Concurrency)
	}
	if cfg.Summarize.Model != "mistral" {
		t.Errorf("expected model mistral, got %q", cfg.Summarize.Model)
	}
	if cfg.Summarize.TokenThreshold != 14000 {
		t.Errorf("untouched default lost: %d", cfg.Summarize.TokenThreshold)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoadSearchEnvFallback(t *testing.T) {
	t.Setenv("GOOGLE_SEARCH_API_KEY", "k-123")
	t.Setenv("GOOGLE_SEARCH_ENGINE_ID", "cx-456")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.APIKey != "k-123" || cfg.Search.EngineID != "cx-456" {
		t.Errorf("env fallback not applied: %+v", cfg.Search)
	}
}
