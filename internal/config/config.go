package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for SiteBrief.
type Config struct {
	Crawl     CrawlConfig     `mapstructure:"crawl"     yaml:"crawl"`
	Fetcher   FetcherConfig   `mapstructure:"fetcher"   yaml:"fetcher"`
	Proxy     ProxyConfig     `mapstructure:"proxy"     yaml:"proxy"`
	Extract   ExtractConfig   `mapstructure:"extract"   yaml:"extract"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"  yaml:"pipeline"`
	Summarize SummarizeConfig `mapstructure:"summarize" yaml:"summarize"`
	Search    SearchConfig    `mapstructure:"search"    yaml:"search"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   yaml:"metrics"`
}

// CrawlConfig controls the bounded crawler.
type CrawlConfig struct {
	MaxPages          int           `mapstructure:"max_pages"          yaml:"max_pages"`
	MaxKnownURLs      int           `mapstructure:"max_known_urls"     yaml:"max_known_urls"`
	Concurrency       int           `mapstructure:"concurrency"        yaml:"concurrency"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"    yaml:"request_timeout"`
	MaxRetries        int           `mapstructure:"max_retries"        yaml:"max_retries"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"        yaml:"retry_delay"`
	IncludeSubdomains bool          `mapstructure:"include_subdomains" yaml:"include_subdomains"`
	UserAgents        []string      `mapstructure:"user_agents"        yaml:"user_agents"`
}

// FetcherConfig controls the HTTP fetcher.
type FetcherConfig struct {
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
}

// ProxyConfig controls proxy rotation.
type ProxyConfig struct {
	Enabled      bool     `mapstructure:"enabled"        yaml:"enabled"`
	Rotation     string   `mapstructure:"rotation"       yaml:"rotation"`
	URLs         []string `mapstructure:"urls"           yaml:"urls"`
	RotateOnFail bool     `mapstructure:"rotate_on_fail" yaml:"rotate_on_fail"`
}

// ExtractConfig controls text extraction.
type ExtractConfig struct {
	Format          string `mapstructure:"format"           yaml:"format"` // text, markdown
	UseTrafilatura  bool   `mapstructure:"use_trafilatura"  yaml:"use_trafilatura"`
	UseReadability  bool   `mapstructure:"use_readability"  yaml:"use_readability"`
	ExcludeComments bool   `mapstructure:"exclude_comments" yaml:"exclude_comments"`
}

// PipelineConfig controls the per-fragment processing chain.
type PipelineConfig struct {
	Middlewares []MiddlewareConfig `mapstructure:"middlewares" yaml:"middlewares"`
}

// MiddlewareConfig defines a single pipeline middleware.
type MiddlewareConfig struct {
	Name    string         `mapstructure:"name"    yaml:"name"`
	Options map[string]any `mapstructure:"options" yaml:"options"`
}

// SummarizeConfig controls LLM summarization and profile building.
type SummarizeConfig struct {
	Provider       string        `mapstructure:"provider"        yaml:"provider"` // ollama, openai, custom
	Model          string        `mapstructure:"model"           yaml:"model"`
	Endpoint       string        `mapstructure:"endpoint"        yaml:"endpoint"`
	APIKey         string        `mapstructure:"api_key"         yaml:"api_key"`
	Temperature    float64       `mapstructure:"temperature"     yaml:"temperature"`
	MaxTokens      int           `mapstructure:"max_tokens"      yaml:"max_tokens"`
	Timeout        time.Duration `mapstructure:"timeout"         yaml:"timeout"`
	Strategy       string        `mapstructure:"strategy"        yaml:"strategy"` // stuff, refine
	TokenThreshold int           `mapstructure:"token_threshold" yaml:"token_threshold"`
	MinLength      int           `mapstructure:"min_length"      yaml:"min_length"`
	ChunkSize      int           `mapstructure:"chunk_size"      yaml:"chunk_size"`
	ChunkOverlap   int           `mapstructure:"chunk_overlap"   yaml:"chunk_overlap"`
	MapConcurrency int           `mapstructure:"map_concurrency" yaml:"map_concurrency"`
}

// SearchConfig controls the web search lookup.
type SearchConfig struct {
	Endpoint   string        `mapstructure:"endpoint"    yaml:"endpoint"`
	APIKey     string        `mapstructure:"api_key"     yaml:"api_key"`
	EngineID   string        `mapstructure:"engine_id"   yaml:"engine_id"`
	NumResults int           `mapstructure:"num_results" yaml:"num_results"`
	Timeout    time.Duration `mapstructure:"timeout"     yaml:"timeout"`
}

// StorageConfig controls output/storage.
type StorageConfig struct {
	Type       string `mapstructure:"type"        yaml:"type"` // json, jsonl, csv, markdown, mongodb
	OutputPath string `mapstructure:"output_path" yaml:"output_path"`
	MongoURI   string `mapstructure:"mongo_uri"   yaml:"mongo_uri"`
	Database   string `mapstructure:"database"    yaml:"database"`
	Collection string `mapstructure:"collection"  yaml:"collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Crawl: CrawlConfig{
			MaxPages:       5,
			MaxKnownURLs:   100,
			Concurrency:    1,
			RequestTimeout: 20 * time.Second,
			MaxRetries:     1,
			RetryDelay:     500 * time.Millisecond,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			},
		},
		Fetcher: FetcherConfig{
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
		},
		Proxy: ProxyConfig{
			Rotation:     "round_robin",
			RotateOnFail: true,
		},
		Extract: ExtractConfig{
			Format:          "text",
			UseTrafilatura:  true,
			UseReadability:  true,
			ExcludeComments: true,
		},
		Pipeline: PipelineConfig{
			Middlewares: []MiddlewareConfig{
				{Name: "trim"},
				{Name: "dedup"},
				{Name: "word_count"},
			},
		},
		Summarize: SummarizeConfig{
			Provider:       "ollama",
			Model:          "llama3",
			Endpoint:       "http://localhost:11434",
			Temperature:    0.5,
			MaxTokens:      4000,
			Timeout:        120 * time.Second,
			Strategy:       "stuff",
			TokenThreshold: 14000,
			MinLength:      30,
			ChunkSize:      6000,
			ChunkOverlap:   1000,
			MapConcurrency: 4,
		},
		Search: SearchConfig{
			Endpoint:   "https://www.googleapis.com/customsearch/v1",
			NumResults: 5,
			Timeout:    15 * time.Second,
		},
		Storage: StorageConfig{
			Type:       "json",
			OutputPath: "./output",
			Database:   "sitebrief",
			Collection: "profiles",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
