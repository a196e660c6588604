// Package crawler implements the bounded same-domain crawl that gathers a
// site's visible text into a corpus.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/IshaanNene/sitebrief/internal/config"
	"github.com/IshaanNene/sitebrief/internal/extract"
	"github.com/IshaanNene/sitebrief/internal/fetcher"
	"github.com/IshaanNene/sitebrief/internal/observability"
	"github.com/IshaanNene/sitebrief/internal/parser"
	"github.com/IshaanNene/sitebrief/internal/pipeline"
	"github.com/IshaanNene/sitebrief/internal/types"
)

// Option configures a Crawler.
type Option func(*Crawler)

// WithFetcher replaces the default HTTP fetcher.
func WithFetcher(f fetcher.Fetcher) Option {
	return func(c *Crawler) { c.fetcher = f }
}

// WithMetrics records crawl metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Crawler) { c.metrics = m }
}

// WithDiscoverer replaces the primary link discovery strategy.
func WithDiscoverer(d parser.Discoverer) Option {
	return func(c *Crawler) { c.primary = d }
}

// Crawler fetches a bounded set of same-domain pages. A Crawler holds no
// per-crawl state, so one value can run several crawls, even concurrently.
type Crawler struct {
	cfg       *config.Config
	fetcher   fetcher.Fetcher
	extractor *extract.Extractor
	primary   parser.Discoverer
	fallback  *parser.LinkCollector
	facts     *parser.StructuredDataExtractor
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// New creates a Crawler.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Crawler, error) {
	c := &Crawler{
		cfg:       cfg,
		extractor: extract.New(cfg.Extract, logger),
		primary:   parser.NewFocusedDiscoverer(logger),
		fallback:  parser.NewLinkCollector(logger),
		facts:     parser.NewStructuredDataExtractor(logger),
		logger:    logger.With("component", "crawler"),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.fetcher == nil {
		f, err := fetcher.NewHTTPFetcher(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("create fetcher: %w", err)
		}
		c.fetcher = f
	}

	return c, nil
}

// Close releases the fetcher.
func (c *Crawler) Close() error {
	return c.fetcher.Close()
}

// Crawl visits at most maxPages pages reachable from startURL without
// leaving its domain and returns their text in discovery order.
//
// Page failures are logged and skipped; an unreachable start URL yields an
// empty corpus. The only errors are invalid arguments and cancellation of
// ctx, in which case the partial corpus is returned alongside ctx.Err().
func (c *Crawler) Crawl(ctx context.Context, startURL string, maxPages int) (*types.Corpus, error) {
	if err := config.ValidateURL(startURL); err != nil {
		return nil, err
	}
	if maxPages < 1 {
		return nil, fmt.Errorf("%w: got %d", types.ErrInvalidMaxPages, maxPages)
	}

	seed, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidURL, err)
	}

	pipe, err := pipeline.FromConfig(c.cfg.Pipeline, c.logger)
	if err != nil {
		return nil, err
	}

	f := c.fetcher
	if sf, ok := f.(fetcher.SessionFetcher); ok {
		session, err := sf.Session()
		if err != nil {
			return nil, fmt.Errorf("open fetch session: %w", err)
		}
		defer session.Close()
		f = session
	}

	st := &crawlState{
		c:        c,
		fetcher:  f,
		scope:    parser.NewScope(seed, c.cfg.Crawl.IncludeSubdomains),
		seedURL:  parser.NormalizeURL(seed),
		maxPages: maxPages,
		maxKnown: knownCap(c.cfg.Crawl.MaxKnownURLs, maxPages),
		frontier: NewFrontier(),
		visited:  NewVisited(maxPages),
		pipe:     pipe,
		corpus:   types.NewCorpus(startURL),
		known:    make(map[string]struct{}),
	}

	start := time.Now()
	workers := max(c.cfg.Crawl.Concurrency, 1)

	c.logger.Info("crawl starting",
		"url", startURL,
		"scope", st.scope.Host(),
		"max_pages", maxPages,
		"workers", workers,
	)

	st.mu.Lock()
	err = st.admit(st.seedURL, 0, "")
	st.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.work(ctx)
		}()
	}
	wg.Wait()

	st.mu.Lock()
	defer st.mu.Unlock()

	for range st.corpus.Sort() {
		c.metrics.FragmentDropped()
	}
	st.corpus.Stats.Elapsed = time.Since(start)

	c.logger.Info("crawl finished",
		"url", startURL,
		"fragments", st.corpus.Len(),
		"visited", st.visited.Len(),
		"fetched", st.corpus.Stats.PagesFetched,
		"failed", st.corpus.Stats.PagesFailed,
		"fallback", st.corpus.Stats.FallbackUsed,
		"duplicate_text", st.corpus.Stats.DuplicateText,
		"elapsed", st.corpus.Stats.Elapsed,
	)

	if err := ctx.Err(); err != nil {
		return st.corpus, err
	}
	return st.corpus, nil
}

// crawlState is owned by a single Crawl call.
type crawlState struct {
	c        *Crawler
	fetcher  fetcher.Fetcher
	scope    *parser.Scope
	seedURL  string
	maxPages int
	maxKnown int
	frontier *Frontier
	visited  *Visited
	pipe     *pipeline.Pipeline

	mu           sync.Mutex
	corpus       *types.Corpus
	known        map[string]struct{}
	admitted     int
	pending      int
	nonSeedLinks int
	seedBody     []byte
	seedPageURL  string
	fallbackDone bool
}

// admit enqueues link if it is new and the page budget allows it. It
// returns ErrDuplicate or ErrFrontierFull for rejected links.
// st.mu must be held.
func (st *crawlState) admit(link string, depth int, parent string) error {
	if _, ok := st.known[link]; !ok {
		if st.maxKnown > 0 && len(st.known) >= st.maxKnown {
			return types.ErrFrontierFull
		}
		st.known[link] = struct{}{}
	}

	if st.visited.Has(link) {
		return types.ErrDuplicate
	}
	if st.admitted >= st.maxPages {
		return types.ErrFrontierFull
	}

	u, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidURL, err)
	}
	st.visited.Admit(link)

	st.pending++
	st.frontier.Push(&types.Request{
		URL:       u,
		Depth:     depth,
		Seq:       st.admitted,
		ParentURL: parent,
		CreatedAt: time.Now(),
	})
	st.admitted++
	st.c.metrics.Links("admitted", 1)
	st.c.metrics.SetQueueDepth(st.frontier.Len())
	return nil
}

func (st *crawlState) work(ctx context.Context) {
	for {
		req := st.frontier.Pop(ctx)
		if req == nil {
			return
		}
		st.c.metrics.WorkerBusy(1)
		st.process(ctx, req)
		st.c.metrics.WorkerBusy(-1)
		st.finish()
	}
}

// finish retires one request. When nothing is left in flight it applies
// the fallback rule once, then closes the frontier if still idle.
func (st *crawlState) finish() {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.pending--
	if st.pending > 0 {
		return
	}

	if !st.fallbackDone && st.nonSeedLinks == 0 && st.seedBody != nil {
		st.fallbackDone = true
		st.corpus.Stats.FallbackUsed = true
		st.c.metrics.Fallback()

		disc := st.c.fallback.Discover(st.seedBody, st.seedPageURL, st.scope)
		st.c.logger.Info("primary discovery found no links, scraping seed anchors",
			"url", st.seedPageURL,
			"links", len(disc.Links),
		)
		st.record(disc, 1, st.seedURL)
	}

	if st.pending == 0 {
		st.frontier.Close()
	}
}

// record merges a discovery result into the crawl. st.mu must be held.
func (st *crawlState) record(disc parser.Discovery, depth int, parent string) {
	stats := &st.corpus.Stats
	stats.LinksDiscovered += len(disc.Links)
	stats.LinksOffDomain += disc.OffDomain
	st.c.metrics.Links("off_domain", disc.OffDomain)

	for _, link := range disc.Links {
		if link != st.seedURL {
			st.nonSeedLinks++
		}
		switch err := st.admit(link, depth, parent); {
		case err == nil:
		case errors.Is(err, types.ErrDuplicate):
			stats.LinksDuplicate++
			st.c.metrics.Links("duplicate", 1)
		case errors.Is(err, types.ErrFrontierFull):
			stats.LinksOverBudget++
			st.c.metrics.Links("over_budget", 1)
		default:
			st.c.logger.Debug("link not admitted", "url", link, "error", err)
		}
	}
}

// fetch retries retryable failures up to crawl.max_retries times, waiting
// for Retry-After when the server sent one.
func (st *crawlState) fetch(ctx context.Context, req *types.Request) *types.Page {
	cfg := st.c.cfg.Crawl
	page := &types.Page{URL: req.URLString(), Depth: req.Depth, Seq: req.Seq}

	for attempt := 0; ; attempt++ {
		page.Response, page.Err = st.fetcher.Fetch(ctx, req)

		var fe *types.FetchError
		if page.Err == nil || attempt >= cfg.MaxRetries || !errors.As(page.Err, &fe) || !fe.IsRetryable() {
			return page
		}

		wait := fe.RetryAfter
		if wait <= 0 {
			wait = cfg.RetryDelay * time.Duration(attempt+1)
		}
		wait = min(wait, cfg.RequestTimeout)

		st.c.logger.Warn("retrying page",
			"url", page.URL,
			"attempt", attempt+1,
			"max_retries", cfg.MaxRetries,
			"wait", wait,
			"error", page.Err,
		)
		st.mu.Lock()
		st.corpus.Stats.PagesRetried++
		st.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return page
		}
	}
}

func (st *crawlState) process(ctx context.Context, req *types.Request) {
	c := st.c
	pageURL := req.URLString()

	page := st.fetch(ctx, req)
	if !page.OK() {
		if ctx.Err() != nil {
			return
		}
		err := page.Err
		if err == nil {
			err = types.ErrEmptyResponse
		}
		c.logger.Warn("page fetch failed", "url", pageURL, "error", err)
		c.metrics.FetchFailed(failureReason(err))
		st.mu.Lock()
		st.corpus.Stats.PagesFailed++
		st.mu.Unlock()
		return
	}

	resp := page.Response
	c.metrics.ObserveFetch(len(resp.Body), resp.FetchDuration)
	if resp.FinalURL != "" {
		pageURL = resp.FinalURL
	}

	final, err := url.Parse(pageURL)
	if err != nil || !st.scope.Contains(final) {
		c.logger.Warn("page redirected out of scope", "url", req.URLString(), "final_url", pageURL, "error", types.ErrOutOfScope)
		st.mu.Lock()
		st.corpus.Stats.PagesFetched++
		st.corpus.Stats.LinksOffDomain++
		st.mu.Unlock()
		c.metrics.Links("off_domain", 1)
		return
	}

	st.mu.Lock()
	st.corpus.Stats.PagesFetched++
	// a redirect target is the same page; never fetch it again
	st.visited.Admit(parser.NormalizeURL(final))
	st.mu.Unlock()

	if !resp.IsHTML() {
		c.logger.Debug("skipping non-HTML page", "url", pageURL, "content_type", resp.ContentType)
		st.mu.Lock()
		st.corpus.Stats.PagesEmpty++
		st.mu.Unlock()
		return
	}

	if req.Seq == 0 {
		facts := c.facts.Facts(resp.Body)
		st.mu.Lock()
		st.seedBody = resp.Body
		st.seedPageURL = pageURL
		st.corpus.SiteFacts = facts
		st.mu.Unlock()
	}

	st.collectText(req, resp, pageURL)

	disc := c.primary.Discover(resp.Body, pageURL, st.scope)
	c.logger.Debug("links discovered",
		"url", pageURL,
		"in_scope", len(disc.Links),
		"off_domain", disc.OffDomain,
		"skipped", disc.Skipped,
	)

	st.mu.Lock()
	st.record(disc, req.Depth+1, req.URLString())
	st.mu.Unlock()
}

func (st *crawlState) collectText(req *types.Request, resp *types.Response, pageURL string) {
	c := st.c
	res := c.extractor.Extract(resp.Body, pageURL)
	c.metrics.Extraction(res.Stage, res.Outcome.String())

	if res.Outcome != extract.OutcomeText {
		c.logger.Debug("no text extracted", "url", pageURL, "outcome", res.Outcome.String())
		st.mu.Lock()
		st.corpus.Stats.PagesEmpty++
		st.mu.Unlock()
		return
	}

	frag := types.NewFragment(req.URLString(), req.Seq, req.Depth)
	frag.Title = res.Title
	frag.Date = res.Date
	frag.Text = res.Text
	frag.Stage = res.Stage

	out, err := st.pipe.Process(frag)
	if err != nil {
		c.logger.Warn("fragment pipeline failed", "url", pageURL, "error", err)
		return
	}
	if out == nil {
		c.metrics.FragmentDropped()
		return
	}

	st.mu.Lock()
	st.corpus.Add(out)
	st.mu.Unlock()
}

// knownCap never lets the discovered-URL cap starve the page budget.
func knownCap(maxKnown, maxPages int) int {
	if maxKnown <= 0 {
		return 0
	}
	return max(maxKnown, maxPages)
}

func failureReason(err error) string {
	var fe *types.FetchError
	switch {
	case errors.Is(err, types.ErrTimeout):
		return "timeout"
	case errors.Is(err, types.ErrProxyExhausted):
		return "proxy"
	case errors.As(err, &fe) && fe.StatusCode > 0:
		return "status"
	default:
		return "network"
	}
}
