package fetcher

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IshaanNene/sitebrief/internal/config"
)

type proxyKey struct{}

// proxyFromContext routes each request through the proxy the fetcher
// picked for it, so failures can be attributed to the right entry.
func proxyFromContext(req *http.Request) (*url.URL, error) {
	if u, ok := req.Context().Value(proxyKey{}).(*url.URL); ok {
		return u, nil
	}
	return nil, nil
}

// ProxyManager handles proxy rotation and failure tracking.
type ProxyManager struct {
	proxies  []*proxyEntry
	rotation string
	index    atomic.Int64
	mu       sync.RWMutex
	logger   *slog.Logger
}

type proxyEntry struct {
	URL      *url.URL
	Healthy  bool
	LastErr  error
	LastUse  time.Time
	Failures int
}

// NewProxyManager creates a new ProxyManager from configuration.
func NewProxyManager(cfg *config.ProxyConfig, logger *slog.Logger) *ProxyManager {
	pm := &ProxyManager{
		proxies:  make([]*proxyEntry, 0, len(cfg.URLs)),
		rotation: cfg.Rotation,
		logger:   logger.With("component", "proxy_manager"),
	}

	for _, rawURL := range cfg.URLs {
		if err := pm.AddProxy(rawURL); err != nil {
			pm.logger.Warn("invalid proxy URL", "url", rawURL, "error", err)
		}
	}

	pm.logger.Info("proxy manager initialized", "count", len(pm.proxies), "rotation", cfg.Rotation)
	return pm
}

// Next returns the next healthy proxy, or nil when none is left.
func (pm *ProxyManager) Next() *url.URL {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	healthy := pm.healthyProxies()
	if len(healthy) == 0 {
		return nil
	}

	var entry *proxyEntry
	switch pm.rotation {
	case "random":
		entry = healthy[rand.Intn(len(healthy))]
	default: // round_robin
		idx := pm.index.Add(1) % int64(len(healthy))
		entry = healthy[idx]
	}
	entry.LastUse = time.Now()
	return entry.URL
}

// MarkFailed takes a proxy out of rotation.
func (pm *ProxyManager) MarkFailed(proxyURL *url.URL, err error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if p := pm.find(proxyURL); p != nil {
		p.Healthy = false
		p.LastErr = err
		p.Failures++
		pm.logger.Warn("proxy marked unhealthy",
			"proxy", proxyURL.Host,
			"failures", p.Failures,
			"error", err,
		)
	}
}

// MarkHealthy puts a proxy back into rotation.
func (pm *ProxyManager) MarkHealthy(proxyURL *url.URL) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if p := pm.find(proxyURL); p != nil {
		p.Healthy = true
		p.LastErr = nil
	}
}

// Count returns the total number of proxies.
func (pm *ProxyManager) Count() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return len(pm.proxies)
}

// HealthyCount returns the number of healthy proxies.
func (pm *ProxyManager) HealthyCount() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return len(pm.healthyProxies())
}

// AddProxy adds a new proxy URL at runtime.
func (pm *ProxyManager) AddProxy(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid proxy URL: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid proxy URL %q: missing host", rawURL)
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.proxies = append(pm.proxies, &proxyEntry{
		URL:     u,
		Healthy: true,
	})
	return nil
}

func (pm *ProxyManager) find(proxyURL *url.URL) *proxyEntry {
	for _, p := range pm.proxies {
		if p.URL.String() == proxyURL.String() {
			return p
		}
	}
	return nil
}

func (pm *ProxyManager) healthyProxies() []*proxyEntry {
	healthy := make([]*proxyEntry, 0, len(pm.proxies))
	for _, p := range pm.proxies {
		if p.Healthy {
			healthy = append(healthy, p)
		}
	}
	return healthy
}
