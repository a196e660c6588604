package main

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/IshaanNene/sitebrief/internal/config"
	"github.com/IshaanNene/sitebrief/internal/types"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := versionCmd()
	cmd.SetOut(&out)
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "SiteBrief ") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestConfigCommandRedactsSecrets(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SITEBRIEF_SUMMARIZE_API_KEY", "sk-secret")

	var out bytes.Buffer
	cmd := configCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "sk-secret") {
		t.Error("API key printed in clear")
	}
	if !strings.Contains(out.String(), "max_pages: 5") {
		t.Errorf("expected crawl defaults in output:\n%s", out.String())
	}
}

func TestExplainProfileError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{types.ErrNoContent, "no content found"},
		{&types.SummarizationError{Reason: types.NoOutputText}, "No output_text found"},
		{&types.ValidationError{Fields: []string{"company_name"}, Err: errors.New("x")}, "missing company_name"},
		{errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		if got := explainProfileError(tt.err).Error(); !strings.Contains(got, tt.want) {
			t.Errorf("explainProfileError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		logger := setupLogger(config.LoggingConfig{Level: tt.level, Format: "json"})
		if !logger.Enabled(t.Context(), tt.want) {
			t.Errorf("level %q: %v not enabled", tt.level, tt.want)
		}
		if tt.want > slog.LevelDebug && logger.Enabled(t.Context(), tt.want-4) {
			t.Errorf("level %q: lower level enabled", tt.level)
		}
	}
}

func TestCrawlCommandWritesCorpus(t *testing.T) {
	t.Chdir(t.TempDir())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		switch r.URL.Path {
		case "/":
			fmt.Fprint(w, `<html><body><p>Acme home</p><a href="/about"></a></body></html>`)
		case "/about":
			fmt.Fprint(w, `<html><body><p>About Acme</p></body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	outFile := filepath.Join(t.TempDir(), "corpus.jsonl")
	var stderr bytes.Buffer
	cmd := crawlCmd()
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{srv.URL, "--format", "jsonl", "--output", outFile, "--max-pages", "3"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "\n"); n != 2 {
		t.Errorf("expected 2 fragments, got %d:\n%s", n, data)
	}
	if !strings.Contains(stderr.String(), "2 fetched") {
		t.Errorf("summary missing from stderr: %s", stderr.String())
	}
}

func TestCrawlCommandRejectsBadURL(t *testing.T) {
	t.Chdir(t.TempDir())
	cmd := crawlCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"ftp://example.com"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected invalid URL error")
	}
}
