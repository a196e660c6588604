package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for common failure modes.
var (
	ErrTimeout         = errors.New("request timed out")
	ErrDuplicate       = errors.New("duplicate URL")
	ErrEmptyResponse   = errors.New("empty response body")
	ErrInvalidURL      = errors.New("invalid URL")
	ErrInvalidMaxPages = errors.New("max pages must be at least 1")
	ErrOutOfScope      = errors.New("URL outside crawl domain")
	ErrFrontierFull    = errors.New("page budget exhausted")
	ErrNoContent       = errors.New("no content found")
	ErrProxyExhausted  = errors.New("all proxies exhausted")
)

// NoOutputText is the reason reported when the summarizer produced nothing.
const NoOutputText = "No output_text found"

// FetchError wraps errors that occur during fetching.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
	Retryable  bool
	RetryAfter time.Duration // populated from Retry-After header on HTTP 429
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) IsRetryable() bool { return e.Retryable }

// ExtractionError records a text-extraction stage that failed or panicked.
type ExtractionError struct {
	Stage string
	URL   string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction error for %s (stage=%s): %v", e.URL, e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// LinkResolutionError is returned when an href cannot be resolved against its page.
type LinkResolutionError struct {
	Href string
	Base string
	Err  error
}

func (e *LinkResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %q against %s: %v", e.Href, e.Base, e.Err)
}

func (e *LinkResolutionError) Unwrap() error { return e.Err }

// SummarizationError is surfaced when the summarizer cannot produce output.
type SummarizationError struct {
	Reason string
	Err    error
}

func (e *SummarizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("summarization failed: %s: %v", e.Reason, e.Err)
	}
	return "summarization failed: " + e.Reason
}

func (e *SummarizationError) Unwrap() error { return e.Err }

// ValidationError lists the profile fields that failed validation.
type ValidationError struct {
	Fields []string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("profile validation failed (%s): %v", strings.Join(e.Fields, ", "), e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur during storage/export.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PipelineError wraps errors that occur in the fragment pipeline.
type PipelineError struct {
	Stage    string
	Fragment *Fragment
	Err      error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error at stage %q: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
