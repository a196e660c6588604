package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks operational metrics for crawls and profile builds.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	PagesFetched    prometheus.Counter
	PagesFailed     *prometheus.CounterVec
	BytesDownloaded prometheus.Counter
	FetchDuration   prometheus.Histogram
	LinksDiscovered *prometheus.CounterVec
	Extractions     *prometheus.CounterVec
	FallbackUsed    prometheus.Counter
	FragmentsDrop   prometheus.Counter
	ActiveWorkers   prometheus.Gauge
	QueueDepth      prometheus.Gauge

	Summaries    *prometheus.CounterVec
	LLMCalls     *prometheus.CounterVec
	CorpusTokens prometheus.Histogram
	Profiles     *prometheus.CounterVec

	logger *slog.Logger
}

// NewMetrics creates a Metrics instance backed by its own registry.
func NewMetrics(logger *slog.Logger) *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		PagesFetched: f.NewCounter(prometheus.CounterOpts{
			Name: "sitebrief_pages_fetched_total",
			Help: "Total pages fetched successfully",
		}),
		PagesFailed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sitebrief_pages_failed_total",
			Help: "Total page fetches that failed",
		}, []string{"reason"}),
		BytesDownloaded: f.NewCounter(prometheus.CounterOpts{
			Name: "sitebrief_bytes_downloaded_total",
			Help: "Total response bytes downloaded",
		}),
		FetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "sitebrief_fetch_duration_seconds",
			Help:    "Time to fetch a single page",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		LinksDiscovered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sitebrief_links_total",
			Help: "Links seen during discovery by disposition",
		}, []string{"disposition"}),
		Extractions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sitebrief_extractions_total",
			Help: "Text extractions by stage and outcome",
		}, []string{"stage", "outcome"}),
		FallbackUsed: f.NewCounter(prometheus.CounterOpts{
			Name: "sitebrief_fallback_discovery_total",
			Help: "Crawls that fell back to the anchor scrape of the seed page",
		}),
		FragmentsDrop: f.NewCounter(prometheus.CounterOpts{
			Name: "sitebrief_fragments_dropped_total",
			Help: "Fragments dropped by the pipeline",
		}),
		ActiveWorkers: f.NewGauge(prometheus.GaugeOpts{
			Name: "sitebrief_active_workers",
			Help: "Crawl workers currently processing a page",
		}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "sitebrief_queue_depth",
			Help: "Admitted URLs waiting to be fetched",
		}),
		Summaries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sitebrief_summaries_total",
			Help: "Summarization runs by strategy and result",
		}, []string{"strategy", "result"}),
		LLMCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sitebrief_llm_calls_total",
			Help: "LLM completions by provider and result",
		}, []string{"provider", "result"}),
		CorpusTokens: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "sitebrief_corpus_tokens",
			Help:    "Token count of summarized corpora",
			Buckets: prometheus.ExponentialBuckets(250, 2, 10),
		}),
		Profiles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sitebrief_profiles_total",
			Help: "Profile builds by result",
		}, []string{"result"}),
		logger: logger.With("component", "metrics"),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer serves metrics and a health check until ctx is cancelled.
func (m *Metrics) StartServer(ctx context.Context, port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.logger.Info("metrics server starting", "addr", srv.Addr, "path", path)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return nil
}

// ObserveFetch records a successful fetch.
func (m *Metrics) ObserveFetch(size int, d time.Duration) {
	if m == nil {
		return
	}
	m.PagesFetched.Inc()
	m.BytesDownloaded.Add(float64(size))
	m.FetchDuration.Observe(d.Seconds())
}

// FetchFailed records a failed fetch.
func (m *Metrics) FetchFailed(reason string) {
	if m == nil {
		return
	}
	m.PagesFailed.WithLabelValues(reason).Inc()
}

// Links records discovery dispositions: admitted, duplicate, off_domain, over_budget.
func (m *Metrics) Links(disposition string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.LinksDiscovered.WithLabelValues(disposition).Add(float64(n))
}

// Extraction records the stage and outcome of one page extraction.
func (m *Metrics) Extraction(stage, outcome string) {
	if m == nil {
		return
	}
	m.Extractions.WithLabelValues(stage, outcome).Inc()
}

// Fallback records a crawl that used the fallback link scrape.
func (m *Metrics) Fallback() {
	if m == nil {
		return
	}
	m.FallbackUsed.Inc()
}

// FragmentDropped records a fragment removed by the pipeline.
func (m *Metrics) FragmentDropped() {
	if m == nil {
		return
	}
	m.FragmentsDrop.Inc()
}

// WorkerBusy adjusts the active worker gauge.
func (m *Metrics) WorkerBusy(delta int) {
	if m == nil {
		return
	}
	m.ActiveWorkers.Add(float64(delta))
}

// SetQueueDepth sets the frontier depth gauge.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

// Summary records a summarization run.
func (m *Metrics) Summary(strategy, result string, tokens int) {
	if m == nil {
		return
	}
	m.Summaries.WithLabelValues(strategy, result).Inc()
	m.CorpusTokens.Observe(float64(tokens))
}

// LLMCall records one LLM completion.
func (m *Metrics) LLMCall(provider string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.LLMCalls.WithLabelValues(provider, result).Inc()
}

// Profile records the result of a profile build.
func (m *Metrics) Profile(result string) {
	if m == nil {
		return
	}
	m.Profiles.WithLabelValues(result).Inc()
}
