// Package sitebrief provides a public SDK for embedding SiteBrief as a
// library.
//
// Example usage:
//
//	client, err := sitebrief.New(
//	    sitebrief.WithMaxPages(5),
//	    sitebrief.WithLLM("openai", "gpt-4o", ""),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	report, err := client.Profile(ctx, "https://example.com")
package sitebrief

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/IshaanNene/sitebrief/internal/config"
	"github.com/IshaanNene/sitebrief/internal/crawler"
	"github.com/IshaanNene/sitebrief/internal/observability"
	"github.com/IshaanNene/sitebrief/internal/parser"
	"github.com/IshaanNene/sitebrief/internal/profile"
	"github.com/IshaanNene/sitebrief/internal/summarize"
	"github.com/IshaanNene/sitebrief/internal/types"
)

type (
	// Corpus is the ordered text gathered by a crawl.
	Corpus = types.Corpus
	// Fragment is the text of one crawled page.
	Fragment = types.Fragment
	// Report is a validated company profile plus crawl metadata.
	Report = profile.Report
	// Profile is the structured company description.
	Profile = profile.Profile
	// Employee is a person named in a profile.
	Employee = profile.Employee
	// Generator produces LLM completions.
	Generator = summarize.Generator
)

// Client crawls sites and builds company profiles.
type Client struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	llm     Generator

	crawler *crawler.Crawler
	builder *profile.Builder
}

// Option configures a Client.
type Option func(*Client)

// WithConfig replaces the whole configuration. Apply it before other
// options, which modify the configuration in place.
func WithConfig(cfg *config.Config) Option {
	return func(c *Client) { c.cfg = cfg }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics records crawl and LLM metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithMaxPages sets the default page budget per crawl.
func WithMaxPages(n int) Option {
	return func(c *Client) { c.cfg.Crawl.MaxPages = n }
}

// WithConcurrency sets the number of concurrent fetch workers.
func WithConcurrency(n int) Option {
	return func(c *Client) { c.cfg.Crawl.Concurrency = n }
}

// WithTimeout sets the per-page request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.cfg.Crawl.RequestTimeout = d }
}

// WithSubdomains widens the crawl scope to the whole registrable domain.
func WithSubdomains(include bool) Option {
	return func(c *Client) { c.cfg.Crawl.IncludeSubdomains = include }
}

// WithUserAgent sets a custom User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.cfg.Crawl.UserAgents = []string{ua} }
}

// WithLLM selects the LLM provider, model and endpoint. An empty endpoint
// keeps the configured one.
func WithLLM(provider, model, endpoint string) Option {
	return func(c *Client) {
		c.cfg.Summarize.Provider = provider
		c.cfg.Summarize.Model = model
		if endpoint != "" {
			c.cfg.Summarize.Endpoint = endpoint
		}
	}
}

// WithAPIKey sets the LLM API key.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.cfg.Summarize.APIKey = key }
}

// WithGenerator replaces the HTTP LLM client.
func WithGenerator(g Generator) Option {
	return func(c *Client) { c.llm = g }
}

// New creates a Client from the defaults and the given options.
func New(opts ...Option) (*Client, error) {
	c := &Client{cfg: config.DefaultConfig()}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	if err := config.Validate(c.cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cr, err := crawler.New(c.cfg, c.logger, crawler.WithMetrics(c.metrics))
	if err != nil {
		return nil, err
	}
	c.crawler = cr

	if c.llm == nil {
		c.llm = summarize.NewLLMClient(c.cfg.Summarize, c.metrics, c.logger)
	}
	b, err := profile.NewBuilder(c.cfg.Summarize, c.llm, c.metrics, c.logger)
	if err != nil {
		cr.Close()
		return nil, err
	}
	c.builder = b

	return c, nil
}

// Config returns the effective configuration.
func (c *Client) Config() *config.Config {
	return c.cfg
}

// Crawl gathers the text of up to the configured number of pages of the
// site at startURL.
func (c *Client) Crawl(ctx context.Context, startURL string) (*Corpus, error) {
	return c.crawler.Crawl(ctx, startURL, c.cfg.Crawl.MaxPages)
}

// Profile crawls startURL and builds its company profile.
func (c *Client) Profile(ctx context.Context, startURL string) (*Report, error) {
	corpus, err := c.Crawl(ctx, startURL)
	if err != nil {
		return nil, err
	}
	return c.ProfileCorpus(ctx, corpus)
}

// ProfileCorpus builds a company profile from an existing corpus.
func (c *Client) ProfileCorpus(ctx context.Context, corpus *Corpus) (*Report, error) {
	return c.builder.Build(ctx, corpus)
}

// Close releases network resources.
func (c *Client) Close() error {
	return c.crawler.Close()
}

// CollectLinks returns up to limit same-domain links found in body, in
// document order. limit <= 0 means no limit.
func CollectLinks(body []byte, sourceURL, domain string, limit int) []string {
	return parser.CollectLinks(body, sourceURL, domain, limit)
}
