// Package summarize condenses a crawl corpus with an LLM, choosing a
// single-pass or map-reduce strategy by token count.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
	"golang.org/x/sync/errgroup"

	"github.com/IshaanNene/sitebrief/internal/config"
	"github.com/IshaanNene/sitebrief/internal/observability"
	"github.com/IshaanNene/sitebrief/internal/types"
)

// Strategy selects how a corpus is summarized.
type Strategy string

const (
	// StrategyStuff passes the whole corpus on without an LLM call.
	StrategyStuff Strategy = "stuff"
	// StrategyRefine summarizes the first chunk and refines it with each
	// following chunk.
	StrategyRefine Strategy = "refine"
	// StrategyMapReduce summarizes chunks independently and combines them.
	StrategyMapReduce Strategy = "map_reduce"
)

// ParseStrategy converts a config value into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyStuff:
		return StrategyStuff, nil
	case StrategyRefine:
		return StrategyRefine, nil
	case StrategyMapReduce:
		return StrategyMapReduce, nil
	default:
		return "", fmt.Errorf("unknown summarization strategy %q", s)
	}
}

// SelectStrategy picks map-reduce when tokens exceed threshold and the
// preferred single-pass strategy otherwise.
func SelectStrategy(tokens, threshold int, preferred Strategy) Strategy {
	if tokens > threshold {
		return StrategyMapReduce
	}
	if preferred == StrategyRefine {
		return StrategyRefine
	}
	return StrategyStuff
}

// Result is the output of one summarization.
type Result struct {
	Text     string
	Strategy Strategy
	Tokens   int
	Chunks   int
	LLMCalls int
	Skipped  bool
}

// Summarizer condenses corpus text.
type Summarizer struct {
	cfg      config.SummarizeConfig
	llm      Generator
	splitter textsplitter.RecursiveCharacter
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// New creates a Summarizer. metrics may be nil.
func New(cfg config.SummarizeConfig, llm Generator, metrics *observability.Metrics, logger *slog.Logger) *Summarizer {
	return &Summarizer{
		cfg: cfg,
		llm: llm,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
			textsplitter.WithChunkSize(cfg.ChunkSize),
			textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
		),
		metrics: metrics,
		logger:  logger.With("component", "summarizer"),
	}
}

// Split breaks text into overlapping chunks.
func (s *Summarizer) Split(text string) ([]string, error) {
	chunks, err := s.splitter.SplitText(text)
	if err != nil {
		return nil, err
	}
	out := chunks[:0]
	for _, c := range chunks {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

// Summarize condenses text with the given strategy. Text shorter than the
// configured minimum is not sent to the LLM and yields a skipped result.
func (s *Summarizer) Summarize(ctx context.Context, text string, strategy Strategy) (*Result, error) {
	trimmed := strings.TrimSpace(text)
	res := &Result{Strategy: strategy}

	if len([]rune(trimmed)) < s.cfg.MinLength {
		res.Skipped = true
		res.Text = NothingToSummarize
		s.metrics.Summary(string(strategy), "skipped", 0)
		s.logger.Info("corpus too short, skipping summarization", "chars", len(trimmed))
		return res, nil
	}
	res.Tokens = CountTokens(trimmed)

	chunks, err := s.Split(trimmed)
	if err != nil {
		return nil, &types.SummarizationError{Reason: "split corpus", Err: err}
	}
	res.Chunks = len(chunks)

	s.logger.Info("summarizing corpus",
		"strategy", strategy,
		"tokens", res.Tokens,
		"chunks", res.Chunks,
	)

	switch strategy {
	case StrategyStuff:
		res.Text = RawDataPrefix + " " + strings.Join(chunks, " ")
	case StrategyRefine:
		res.Text, res.LLMCalls, err = s.refine(ctx, chunks)
	case StrategyMapReduce:
		res.Text, res.LLMCalls, err = s.mapReduce(ctx, chunks)
	default:
		err = &types.SummarizationError{Reason: fmt.Sprintf("unknown strategy %q", strategy)}
	}

	if err == nil && strings.TrimSpace(res.Text) == "" {
		err = &types.SummarizationError{Reason: types.NoOutputText}
	}
	if err != nil {
		s.metrics.Summary(string(strategy), "error", res.Tokens)
		return nil, err
	}

	s.metrics.Summary(string(strategy), "ok", res.Tokens)
	return res, nil
}

func (s *Summarizer) refine(ctx context.Context, chunks []string) (string, int, error) {
	calls := 0
	summary, err := s.call(ctx, render(refineInitialPrompt, map[string]string{"text": chunks[0]}))
	calls++
	if err != nil {
		return "", calls, err
	}

	for _, chunk := range chunks[1:] {
		next, err := s.call(ctx, render(refinePrompt, map[string]string{
			"existing_answer": summary,
			"text":            chunk,
		}))
		calls++
		if err != nil {
			return "", calls, err
		}
		if strings.TrimSpace(next) != "" {
			summary = next
		}
	}
	return strings.TrimSpace(summary), calls, nil
}

func (s *Summarizer) mapReduce(ctx context.Context, chunks []string) (string, int, error) {
	partials := make([]string, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.cfg.MapConcurrency, 1))
	for i, chunk := range chunks {
		g.Go(func() error {
			out, err := s.call(gctx, render(mapPrompt, map[string]string{"text": chunk}))
			if err != nil {
				return err
			}
			partials[i] = strings.TrimSpace(out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", len(chunks), err
	}

	combined := strings.Join(partials, "\n\n")
	out, err := s.call(ctx, render(combinePrompt, map[string]string{"text": combined}))
	return strings.TrimSpace(out), len(chunks) + 1, err
}

func (s *Summarizer) call(ctx context.Context, prompt string) (string, error) {
	out, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		var se *types.SummarizationError
		if errors.As(err, &se) {
			return "", err
		}
		return "", &types.SummarizationError{Reason: "llm request failed", Err: err}
	}
	return out, nil
}
