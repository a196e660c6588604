package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and CLI flags.
// Priority (highest to lowest): CLI flags > env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("SITEBRIEF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("sitebrief")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".sitebrief"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvFallbacks(cfg)

	return cfg, nil
}

// applyEnvFallbacks fills credentials from the conventional provider
// variables when they were not configured explicitly.
func applyEnvFallbacks(cfg *Config) {
	if cfg.Summarize.APIKey == "" && cfg.Summarize.Provider == "openai" {
		cfg.Summarize.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Search.APIKey == "" {
		cfg.Search.APIKey = os.Getenv("GOOGLE_SEARCH_API_KEY")
	}
	if cfg.Search.EngineID == "" {
		cfg.Search.EngineID = os.Getenv("GOOGLE_SEARCH_ENGINE_ID")
	}
}

// setDefaults registers default values in viper so env overrides bind.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("crawl.max_pages", cfg.Crawl.MaxPages)
	v.SetDefault("crawl.max_known_urls", cfg.Crawl.MaxKnownURLs)
	v.SetDefault("crawl.concurrency", cfg.Crawl.Concurrency)
	v.SetDefault("crawl.request_timeout", cfg.Crawl.RequestTimeout)
	v.SetDefault("crawl.max_retries", cfg.Crawl.MaxRetries)
	v.SetDefault("crawl.retry_delay", cfg.Crawl.RetryDelay)
	v.SetDefault("crawl.include_subdomains", cfg.Crawl.IncludeSubdomains)
	v.SetDefault("crawl.user_agents", cfg.Crawl.UserAgents)

	v.SetDefault("fetcher.follow_redirects", cfg.Fetcher.FollowRedirects)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.tls_insecure", cfg.Fetcher.TLSInsecure)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)

	v.SetDefault("proxy.enabled", cfg.Proxy.Enabled)
	v.SetDefault("proxy.rotation", cfg.Proxy.Rotation)
	v.SetDefault("proxy.rotate_on_fail", cfg.Proxy.RotateOnFail)

	v.SetDefault("extract.format", cfg.Extract.Format)
	v.SetDefault("extract.use_trafilatura", cfg.Extract.UseTrafilatura)
	v.SetDefault("extract.use_readability", cfg.Extract.UseReadability)
	v.SetDefault("extract.exclude_comments", cfg.Extract.ExcludeComments)

	v.SetDefault("summarize.provider", cfg.Summarize.Provider)
	v.SetDefault("summarize.model", cfg.Summarize.Model)
	v.SetDefault("summarize.endpoint", cfg.Summarize.Endpoint)
	v.SetDefault("summarize.api_key", cfg.Summarize.APIKey)
	v.SetDefault("summarize.temperature", cfg.Summarize.Temperature)
	v.SetDefault("summarize.max_tokens", cfg.Summarize.MaxTokens)
	v.SetDefault("summarize.timeout", cfg.Summarize.Timeout)
	v.SetDefault("summarize.strategy", cfg.Summarize.Strategy)
	v.SetDefault("summarize.token_threshold", cfg.Summarize.TokenThreshold)
	v.SetDefault("summarize.min_length", cfg.Summarize.MinLength)
	v.SetDefault("summarize.chunk_size", cfg.Summarize.ChunkSize)
	v.SetDefault("summarize.chunk_overlap", cfg.Summarize.ChunkOverlap)
	v.SetDefault("summarize.map_concurrency", cfg.Summarize.MapConcurrency)

	v.SetDefault("search.endpoint", cfg.Search.Endpoint)
	v.SetDefault("search.api_key", cfg.Search.APIKey)
	v.SetDefault("search.engine_id", cfg.Search.EngineID)
	v.SetDefault("search.num_results", cfg.Search.NumResults)
	v.SetDefault("search.timeout", cfg.Search.Timeout)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.output_path", cfg.Storage.OutputPath)
	v.SetDefault("storage.mongo_uri", cfg.Storage.MongoURI)
	v.SetDefault("storage.database", cfg.Storage.Database)
	v.SetDefault("storage.collection", cfg.Storage.Collection)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
