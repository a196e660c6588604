package pipeline

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/IshaanNene/sitebrief/internal/config"
	"github.com/IshaanNene/sitebrief/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func fragment(url, text string) *types.Fragment {
	f := types.NewFragment(url, 0, 0)
	f.Text = text
	return f
}

func TestPipelineBasic(t *testing.T) {
	p := New(testLogger)
	p.Use(&TrimMiddleware{})
	p.Use(&WordCountMiddleware{})

	result, err := p.Process(fragment("https://example.com", "  Hello company world  "))
	if err != nil {
		t.Fatalf("pipeline error: %v", err)
	}
	if result.Text != "Hello company world" {
		t.Errorf("expected trimmed text, got %q", result.Text)
	}
	if result.Words != 3 {
		t.Errorf("expected 3 words, got %d", result.Words)
	}
}

func TestFromConfigDefaults(t *testing.T) {
	p, err := FromConfig(config.DefaultConfig().Pipeline, testLogger)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if p.Len() != 3 {
		t.Errorf("expected 3 default middlewares, got %d", p.Len())
	}

	text := "Our latency is 5ms < competitors and throughput > 10k rps, guaranteed."
	out, err := p.Process(fragment("https://example.com/a", "  "+text+"  "))
	if err != nil || out == nil {
		t.Fatalf("unexpected drop: %v", err)
	}
	if out.Text != text {
		t.Errorf("got %q, want %q", out.Text, text)
	}
	if out.Checksum == "" {
		t.Error("expected dedup to stamp a checksum")
	}
}

func TestHTMLUnescapeKeepsAngleBrackets(t *testing.T) {
	m := &HTMLUnescapeMiddleware{}

	tests := []struct {
		in   string
		want string
	}{
		{"Fish &amp; Chips", "Fish & Chips"},
		{"5ms &lt; competitors &gt; 10k", "5ms < competitors > 10k"},
		{"a < b and c > d", "a < b and c > d"},
		{"# Heading\n\n- item", "# Heading\n\n- item"},
	}
	for _, tt := range tests {
		out, err := m.Process(fragment("https://example.com", tt.in))
		if err != nil {
			t.Fatalf("Process: %v", err)
		}
		if out.Text != tt.want {
			t.Errorf("Process(%q) = %q, want %q", tt.in, out.Text, tt.want)
		}
	}
}

func TestFromConfigUnknown(t *testing.T) {
	_, err := FromConfig(config.PipelineConfig{
		Middlewares: []config.MiddlewareConfig{{Name: "teleport"}},
	}, testLogger)
	if err == nil {
		t.Error("expected error for unknown middleware")
	}
}

func TestDedupMiddleware(t *testing.T) {
	m := NewDedupMiddleware()

	a, _ := m.Process(fragment("https://example.com/a", "same text"))
	b, _ := m.Process(fragment("https://example.com/b", "same text"))
	c, _ := m.Process(fragment("https://example.com/c", "other text"))
	if a == nil || b == nil || c == nil {
		t.Fatal("dedup must not drop fragments itself")
	}
	if a.Checksum == "" || a.Checksum != b.Checksum {
		t.Errorf("identical text should share a checksum: %q vs %q", a.Checksum, b.Checksum)
	}
	if a.Checksum == c.Checksum {
		t.Error("distinct text should not share a checksum")
	}

	empty, _ := m.Process(fragment("https://example.com/d", ""))
	if empty.Checksum != "" {
		t.Error("empty text should not be stamped")
	}
}

func TestMinWordsMiddleware(t *testing.T) {
	m := &MinWordsMiddleware{Min: 3}
	if out, _ := m.Process(fragment("u", "two words")); out != nil {
		t.Error("short fragment should be dropped")
	}
	if out, _ := m.Process(fragment("u", "three whole words")); out == nil {
		t.Error("fragment meeting minimum should pass")
	}
}

func TestMaxCharsMiddleware(t *testing.T) {
	m := &MaxCharsMiddleware{Max: 12}
	out, _ := m.Process(fragment("u", "alpha beta gamma delta"))
	if out.Text != "alpha beta" {
		t.Errorf("got %q", out.Text)
	}
	if out.Meta["truncated"] != "true" {
		t.Error("truncation not recorded")
	}
}

func TestPIIRedactMiddleware(t *testing.T) {
	m := NewPIIRedactMiddleware(testLogger)
	out, _ := m.Process(fragment("u", "Contact sales@acme.test or 555-123-4567 today"))

	if strings.Contains(out.Text, "sales@acme.test") {
		t.Errorf("email not redacted: %q", out.Text)
	}
	if strings.Contains(out.Text, "555-123-4567") {
		t.Errorf("phone not redacted: %q", out.Text)
	}
	if !strings.Contains(out.Text, "[REDACTED_EMAIL]") {
		t.Errorf("missing email marker: %q", out.Text)
	}
}

type failingMiddleware struct{}

func (failingMiddleware) Name() string { return "failing" }
func (failingMiddleware) Process(*types.Fragment) (*types.Fragment, error) {
	return nil, errors.New("boom")
}

func TestPipelineErrorCarriesStage(t *testing.T) {
	p := New(testLogger)
	p.Use(failingMiddleware{})

	_, err := p.Process(fragment("u", "x"))
	var pe *types.PipelineError
	if !errors.As(err, &pe) || pe.Stage != "failing" {
		t.Errorf("expected PipelineError at stage failing, got %v", err)
	}
}
