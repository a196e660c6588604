package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IshaanNene/sitebrief/internal/config"
	"github.com/IshaanNene/sitebrief/internal/observability"
	"github.com/IshaanNene/sitebrief/internal/summarize"
	"github.com/IshaanNene/sitebrief/internal/types"
)

// Builder produces a company profile from a crawl corpus.
type Builder struct {
	cfg        config.SummarizeConfig
	preferred  summarize.Strategy
	summarizer *summarize.Summarizer
	llm        summarize.Generator
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewBuilder creates a Builder that uses llm for both summarization and
// the final formatting call. metrics may be nil.
func NewBuilder(cfg config.SummarizeConfig, llm summarize.Generator, metrics *observability.Metrics, logger *slog.Logger) (*Builder, error) {
	preferred, err := summarize.ParseStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	return &Builder{
		cfg:        cfg,
		preferred:  preferred,
		summarizer: summarize.New(cfg, llm, metrics, logger),
		llm:        llm,
		metrics:    metrics,
		logger:     logger.With("component", "profile_builder"),
	}, nil
}

// Build summarizes the corpus and asks the model for a structured profile.
// An empty corpus yields types.ErrNoContent. Summarization and validation
// failures are returned as-is and no profile is produced.
func (b *Builder) Build(ctx context.Context, corpus *types.Corpus) (*Report, error) {
	started := time.Now()

	if corpus == nil || corpus.Empty() {
		b.metrics.Profile("no_content")
		return nil, types.ErrNoContent
	}

	text := corpus.Text()
	tokens := summarize.CountTokens(text)
	strategy := summarize.SelectStrategy(tokens, b.cfg.TokenThreshold, b.preferred)

	b.logger.Info("building profile",
		"url", corpus.StartURL,
		"fragments", corpus.Len(),
		"tokens", tokens,
		"strategy", strategy,
	)

	sum, err := b.summarizer.Summarize(ctx, text, strategy)
	if err != nil {
		b.metrics.Profile("summarize_error")
		return nil, err
	}
	if sum.Skipped {
		b.metrics.Profile("no_content")
		return nil, types.ErrNoContent
	}

	out, err := b.llm.Generate(ctx, buildPrompt(sum.Text, corpus.SiteFacts))
	if err != nil {
		b.metrics.Profile("llm_error")
		var se *types.SummarizationError
		if errors.As(err, &se) {
			return nil, err
		}
		return nil, fmt.Errorf("format profile: %w", err)
	}

	p, err := Parse(out)
	if err != nil {
		b.metrics.Profile("invalid")
		b.logger.Warn("model output failed validation", "url", corpus.StartURL, "error", err)
		return nil, err
	}

	b.metrics.Profile("ok")
	return &Report{
		Profile:      p,
		StartURL:     corpus.StartURL,
		PagesCrawled: corpus.Stats.PagesFetched,
		Strategy:     string(strategy),
		Tokens:       tokens,
		SiteFacts:    corpus.SiteFacts,
		Stats:        corpus.Stats,
		StartedAt:    started,
		FinishedAt:   time.Now(),
	}, nil
}
