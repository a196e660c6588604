package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/IshaanNene/sitebrief/internal/config"
	"github.com/IshaanNene/sitebrief/internal/types"
)

func TestProxyManagerRoundRobin(t *testing.T) {
	pm := NewProxyManager(&config.ProxyConfig{
		Rotation: "round_robin",
		URLs:     []string{"http://p1:8080", "http://p2:8080", "::bad"},
	}, testLogger)

	if pm.Count() != 2 {
		t.Fatalf("expected 2 valid proxies, got %d", pm.Count())
	}

	seen := map[string]bool{}
	for i := 0; i < 4; i++ {
		seen[pm.Next().Host] = true
	}
	if !seen["p1:8080"] || !seen["p2:8080"] {
		t.Errorf("round robin did not visit both proxies: %v", seen)
	}
}

func TestProxyManagerFailover(t *testing.T) {
	pm := NewProxyManager(&config.ProxyConfig{
		URLs: []string{"http://p1:8080", "http://p2:8080"},
	}, testLogger)

	p1, _ := url.Parse("http://p1:8080")
	pm.MarkFailed(p1, errors.New("refused"))
	if pm.HealthyCount() != 1 {
		t.Fatalf("expected 1 healthy proxy, got %d", pm.HealthyCount())
	}
	for i := 0; i < 3; i++ {
		if got := pm.Next().Host; got != "p2:8080" {
			t.Errorf("unhealthy proxy returned: %s", got)
		}
	}

	pm.MarkHealthy(p1)
	if pm.HealthyCount() != 2 {
		t.Errorf("expected proxy to recover")
	}
}

func TestFetchThroughProxy(t *testing.T) {
	var proxied bool
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxied = r.URL.Host == "company.test"
		w.Write([]byte("<html><body>via proxy</body></html>"))
	}))
	defer proxy.Close()

	f := newTestFetcher(t, func(c *config.Config) {
		c.Proxy.Enabled = true
		c.Proxy.URLs = []string{proxy.URL}
	})

	_, err := f.Fetch(context.Background(), mustRequest(t, "http://company.test/about"))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !proxied {
		t.Error("request did not go through the proxy")
	}
}

func TestFetchProxyExhausted(t *testing.T) {
	f := newTestFetcher(t, func(c *config.Config) {
		c.Proxy.Enabled = true
		c.Proxy.URLs = []string{"http://p1:8080"}
	})
	p1, _ := url.Parse("http://p1:8080")
	f.proxyMgr.MarkFailed(p1, errors.New("down"))

	_, err := f.Fetch(context.Background(), mustRequest(t, "http://company.test/"))
	if !errors.Is(err, types.ErrProxyExhausted) {
		t.Errorf("expected ErrProxyExhausted, got %v", err)
	}
}
