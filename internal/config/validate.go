package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/IshaanNene/sitebrief/internal/types"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Crawl.MaxPages < 1 {
		return fmt.Errorf("crawl.max_pages must be >= 1, got %d", cfg.Crawl.MaxPages)
	}
	if cfg.Crawl.MaxKnownURLs < 0 {
		return fmt.Errorf("crawl.max_known_urls must be >= 0, got %d", cfg.Crawl.MaxKnownURLs)
	}
	if cfg.Crawl.Concurrency < 1 {
		return fmt.Errorf("crawl.concurrency must be >= 1, got %d", cfg.Crawl.Concurrency)
	}
	if cfg.Crawl.Concurrency > 256 {
		return fmt.Errorf("crawl.concurrency must be <= 256, got %d", cfg.Crawl.Concurrency)
	}
	if cfg.Crawl.RequestTimeout <= 0 {
		return fmt.Errorf("crawl.request_timeout must be > 0")
	}
	if cfg.Crawl.MaxRetries < 0 {
		return fmt.Errorf("crawl.max_retries must be >= 0, got %d", cfg.Crawl.MaxRetries)
	}
	if cfg.Crawl.RetryDelay < 0 {
		return fmt.Errorf("crawl.retry_delay must be >= 0")
	}

	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}

	if cfg.Proxy.Enabled {
		if cfg.Proxy.Rotation != "round_robin" && cfg.Proxy.Rotation != "random" {
			return fmt.Errorf("proxy.rotation must be 'round_robin' or 'random', got %q", cfg.Proxy.Rotation)
		}
		for _, proxyURL := range cfg.Proxy.URLs {
			if _, err := url.Parse(proxyURL); err != nil {
				return fmt.Errorf("invalid proxy URL %q: %w", proxyURL, err)
			}
		}
	}

	if cfg.Extract.Format != "text" && cfg.Extract.Format != "markdown" {
		return fmt.Errorf("extract.format must be 'text' or 'markdown', got %q", cfg.Extract.Format)
	}

	validProviders := map[string]bool{"ollama": true, "openai": true, "custom": true}
	if !validProviders[cfg.Summarize.Provider] {
		return fmt.Errorf("summarize.provider must be ollama/openai/custom, got %q", cfg.Summarize.Provider)
	}
	if cfg.Summarize.Strategy != "stuff" && cfg.Summarize.Strategy != "refine" {
		return fmt.Errorf("summarize.strategy must be 'stuff' or 'refine', got %q", cfg.Summarize.Strategy)
	}
	if cfg.Summarize.TokenThreshold < 1 {
		return fmt.Errorf("summarize.token_threshold must be >= 1, got %d", cfg.Summarize.TokenThreshold)
	}
	if cfg.Summarize.ChunkSize < 1 {
		return fmt.Errorf("summarize.chunk_size must be >= 1, got %d", cfg.Summarize.ChunkSize)
	}
	if cfg.Summarize.ChunkOverlap < 0 || cfg.Summarize.ChunkOverlap >= cfg.Summarize.ChunkSize {
		return fmt.Errorf("summarize.chunk_overlap must be in [0, chunk_size), got %d", cfg.Summarize.ChunkOverlap)
	}
	if cfg.Summarize.MapConcurrency < 1 {
		return fmt.Errorf("summarize.map_concurrency must be >= 1, got %d", cfg.Summarize.MapConcurrency)
	}

	if cfg.Search.NumResults < 1 || cfg.Search.NumResults > 10 {
		return fmt.Errorf("search.num_results must be 1-10, got %d", cfg.Search.NumResults)
	}

	validStorageTypes := map[string]bool{
		"json": true, "jsonl": true, "csv": true, "markdown": true, "mongodb": true,
	}
	if !validStorageTypes[cfg.Storage.Type] {
		return fmt.Errorf("storage.type %q is not supported (valid: json, jsonl, csv, markdown, mongodb)", cfg.Storage.Type)
	}
	if cfg.Storage.Type == "mongodb" && cfg.Storage.MongoURI == "" {
		return fmt.Errorf("storage.mongo_uri is required for mongodb storage")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(cfg.Logging.Level)] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks if a URL string is valid as a crawl seed.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", types.ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: URL must have a host", types.ErrInvalidURL)
	}
	return nil
}
