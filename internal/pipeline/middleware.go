package pipeline

import (
	"html"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/IshaanNene/sitebrief/internal/types"
)

// TrimMiddleware trims whitespace from the fragment text and title.
type TrimMiddleware struct{}

func (m *TrimMiddleware) Name() string { return "trim" }

func (m *TrimMiddleware) Process(f *types.Fragment) (*types.Fragment, error) {
	f.Text = strings.TrimSpace(f.Text)
	f.Title = strings.TrimSpace(f.Title)
	return f, nil
}

// HTMLUnescapeMiddleware decodes HTML entities left in fragment text,
// such as text from a stage that returns escaped markup. Literal angle
// brackets are kept.
type HTMLUnescapeMiddleware struct{}

func (m *HTMLUnescapeMiddleware) Name() string { return "html_unescape" }

func (m *HTMLUnescapeMiddleware) Process(f *types.Fragment) (*types.Fragment, error) {
	f.Text = html.UnescapeString(f.Text)
	f.Title = html.UnescapeString(f.Title)
	return f, nil
}

// DedupMiddleware stamps each fragment with a content checksum. The corpus
// keeps only the lowest-sequence fragment per checksum when it is sorted,
// so the same page served under two paths counts once whatever order the
// workers finish in.
type DedupMiddleware struct{}

func NewDedupMiddleware() *DedupMiddleware {
	return &DedupMiddleware{}
}

func (m *DedupMiddleware) Name() string { return "dedup" }

func (m *DedupMiddleware) Process(f *types.Fragment) (*types.Fragment, error) {
	if f.Text != "" {
		f.ComputeChecksum()
	}
	return f, nil
}

// WordCountMiddleware records the number of words in the fragment.
type WordCountMiddleware struct{}

func (m *WordCountMiddleware) Name() string { return "word_count" }

func (m *WordCountMiddleware) Process(f *types.Fragment) (*types.Fragment, error) {
	f.Words = len(strings.Fields(f.Text))
	return f, nil
}

// MinWordsMiddleware drops fragments shorter than Min words.
type MinWordsMiddleware struct {
	Min int
}

func (m *MinWordsMiddleware) Name() string { return "min_words" }

func (m *MinWordsMiddleware) Process(f *types.Fragment) (*types.Fragment, error) {
	if len(strings.Fields(f.Text)) < m.Min {
		return nil, nil
	}
	return f, nil
}

// MaxCharsMiddleware truncates fragment text to Max runes on a word boundary.
type MaxCharsMiddleware struct {
	Max int
}

func (m *MaxCharsMiddleware) Name() string { return "max_chars" }

func (m *MaxCharsMiddleware) Process(f *types.Fragment) (*types.Fragment, error) {
	if m.Max <= 0 || utf8.RuneCountInString(f.Text) <= m.Max {
		return f, nil
	}
	runes := []rune(f.Text)
	cut := string(runes[:m.Max])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	f.Text = cut
	f.Meta["truncated"] = "true"
	return f, nil
}

// PIIRedactMiddleware redacts personal contact data before text leaves
// the process for the summarizer.
type PIIRedactMiddleware struct {
	patterns []piiPattern
	logger   *slog.Logger
}

type piiPattern struct {
	name string
	re   *regexp.Regexp
}

func NewPIIRedactMiddleware(logger *slog.Logger) *PIIRedactMiddleware {
	return &PIIRedactMiddleware{
		patterns: []piiPattern{
			{"email", regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)},
			{"ssn", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
			{"credit_card", regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`)},
			{"phone_intl", regexp.MustCompile(`\+\d{1,3}[-.\s]?\(?\d{1,4}\)?[-.\s]?\d{1,4}[-.\s]?\d{1,9}`)},
			{"phone_us", regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)},
		},
		logger: logger.With("component", "pii_redact"),
	}
}

func (m *PIIRedactMiddleware) Name() string { return "pii_redact" }

func (m *PIIRedactMiddleware) Process(f *types.Fragment) (*types.Fragment, error) {
	s := f.Text
	for _, p := range m.patterns {
		if p.re.MatchString(s) {
			s = p.re.ReplaceAllString(s, "[REDACTED_"+strings.ToUpper(p.name)+"]")
			m.logger.Debug("PII redacted", "url", f.URL, "type", p.name)
		}
	}
	f.Text = s
	return f, nil
}
