package observability

import (
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics(testLogger)

	m.ObserveFetch(1024, 150*time.Millisecond)
	m.ObserveFetch(512, 50*time.Millisecond)
	m.FetchFailed("status")
	m.Links("admitted", 3)
	m.Links("off_domain", 0)
	m.LLMCall("ollama", nil)
	m.LLMCall("ollama", errors.New("down"))

	if got := testutil.ToFloat64(m.PagesFetched); got != 2 {
		t.Errorf("pages fetched = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.BytesDownloaded); got != 1536 {
		t.Errorf("bytes = %v, want 1536", got)
	}
	if got := testutil.ToFloat64(m.PagesFailed.WithLabelValues("status")); got != 1 {
		t.Errorf("failed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LinksDiscovered.WithLabelValues("admitted")); got != 3 {
		t.Errorf("admitted = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.LLMCalls.WithLabelValues("ollama", "error")); got != 1 {
		t.Errorf("llm errors = %v, want 1", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveFetch(1, time.Millisecond)
	m.FetchFailed("x")
	m.Links("admitted", 1)
	m.Extraction("generic", "text")
	m.Fallback()
	m.FragmentDropped()
	m.WorkerBusy(1)
	m.SetQueueDepth(3)
	m.Summary("stuff", "ok", 10)
	m.LLMCall("ollama", nil)
	m.Profile("ok")
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics(testLogger)
	m.Fallback()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), "sitebrief_fallback_discovery_total 1") {
		t.Errorf("exposition missing fallback counter:\n%s", body)
	}
}
