package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/IshaanNene/sitebrief/internal/config"
	"github.com/IshaanNene/sitebrief/internal/types"
)

// Middleware processes a fragment and returns the (possibly modified)
// fragment. Return nil to drop the fragment from the corpus.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms a fragment. Return nil to drop it.
	Process(f *types.Fragment) (*types.Fragment, error)
}

// Pipeline chains middleware processors together. A Pipeline holds state
// (the dedup set) and must not be shared between crawls.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// FromConfig builds a pipeline from the configured middleware list.
func FromConfig(cfg config.PipelineConfig, logger *slog.Logger) (*Pipeline, error) {
	p := New(logger)
	for _, mc := range cfg.Middlewares {
		mw, err := build(mc, logger)
		if err != nil {
			return nil, err
		}
		p.Use(mw)
	}
	return p, nil
}

func build(mc config.MiddlewareConfig, logger *slog.Logger) (Middleware, error) {
	switch mc.Name {
	case "trim":
		return &TrimMiddleware{}, nil
	case "html_unescape":
		return &HTMLUnescapeMiddleware{}, nil
	case "dedup":
		return NewDedupMiddleware(), nil
	case "word_count":
		return &WordCountMiddleware{}, nil
	case "min_words":
		return &MinWordsMiddleware{Min: intOption(mc.Options, "min", 1)}, nil
	case "max_chars":
		return &MaxCharsMiddleware{Max: intOption(mc.Options, "max", 20000)}, nil
	case "pii_redact":
		return NewPIIRedactMiddleware(logger), nil
	default:
		return nil, fmt.Errorf("unknown pipeline middleware %q", mc.Name)
	}
}

func intOption(opts map[string]any, key string, def int) int {
	switch v := opts[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the fragment through all middleware in order.
func (p *Pipeline) Process(f *types.Fragment) (*types.Fragment, error) {
	current := f

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, &types.PipelineError{
				Stage:    mw.Name(),
				Fragment: current,
				Err:      err,
			}
		}
		if result == nil {
			p.logger.Debug("fragment dropped", "stage", mw.Name(), "url", f.URL)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}
