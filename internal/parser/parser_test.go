package parser

import (
	"log/slog"
	"net/url"
	"os"
	"reflect"
	"testing"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const companyHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Acme Widgets</title>
    <meta name="description" content="Acme builds industrial widgets">
    <meta property="og:site_name" content="Acme">
    <script type="application/ld+json">
    {"@context":"https://schema.org","@type":"Organization","name":"Acme Widgets Inc.","url":"https://acme.test","foundingDate":"1999"}
    </script>
</head>
<body>
    <nav><a href="/">Home</a><a href="/about?ref=nav#team">About</a></nav>
    <div class="content">
        <a href="/products">Products</a>
        <a href="https://www.acme.test/careers">Careers</a>
        <a href="https://other.test/partner">Partner</a>
        <a href="/brochure.pdf">Brochure</a>
        <a href="/login" rel="nofollow">Login</a>
        <a href="mailto:sales@acme.test">Email</a>
        <a href="javascript:void(0)">Menu</a>
        <a href="">Empty</a>
        <a href="/about">About again</a>
    </div>
</body>
</html>`

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://Example.com/About?x=1#top", "https://example.com/About"},
		{"http://example.com:80", "http://example.com/"},
		{"https://example.com:443/a", "https://example.com/a"},
		{"http://example.com:8080/a/", "http://example.com:8080/a/"},
		{"HTTP://EXAMPLE.COM/path%20x", "http://example.com/path%20x"},
	}
	for _, tt := range tests {
		got, err := NormalizeString(tt.in)
		if err != nil {
			t.Fatalf("NormalizeString(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("NormalizeString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := NormalizeString("mailto:a@b.c"); err == nil {
		t.Error("expected error for non-http URL")
	}
}

func TestScopeContains(t *testing.T) {
	seed, _ := url.Parse("https://example.com/")
	exact := NewScope(seed, false)
	wide := NewScope(seed, true)

	tests := []struct {
		url        string
		exact      bool
		subdomains bool
	}{
		{"https://example.com/about", true, true},
		{"http://EXAMPLE.com/x", true, true},
		{"https://www.example.com/x", true, true},
		{"https://blog.example.com/x", false, true},
		{"https://other.com/", false, false},
		{"https://example.com.evil.net/", false, false},
		{"https://notexample.com/", false, false},
	}

	for _, tt := range tests {
		u, _ := url.Parse(tt.url)
		if got := exact.Contains(u); got != tt.exact {
			t.Errorf("exact scope Contains(%q) = %v, want %v", tt.url, got, tt.exact)
		}
		if got := wide.Contains(u); got != tt.subdomains {
			t.Errorf("subdomain scope Contains(%q) = %v, want %v", tt.url, got, tt.subdomains)
		}
	}
}

func TestScopeHost(t *testing.T) {
	tests := map[string]string{
		"www.Example.com":         "example.com",
		"example.com:8080":        "example.com:8080",
		"https://example.com:443": "example.com",
	}
	for domain, want := range tests {
		if got := ScopeForDomain(domain).Host(); got != want {
			t.Errorf("ScopeForDomain(%q).Host() = %q, want %q", domain, got, want)
		}
	}
}

func TestCollectLinks(t *testing.T) {
	links := CollectLinks([]byte(companyHTML), "https://acme.test/", "acme.test", 0)

	want := []string{
		"https://acme.test/",
		"https://acme.test/about",
		"https://acme.test/products",
		"https://www.acme.test/careers",
		"https://acme.test/brochure.pdf",
		"https://acme.test/login",
	}
	if !reflect.DeepEqual(links, want) {
		t.Errorf("CollectLinks:\n got %v\nwant %v", links, want)
	}
}

func TestCollectLinksLimit(t *testing.T) {
	links := CollectLinks([]byte(companyHTML), "https://acme.test/", "acme.test", 2)
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %d: %v", len(links), links)
	}
	if links[1] != "https://acme.test/about" {
		t.Errorf("limit should keep document order, got %v", links)
	}
}

func TestCollectLinksExampleScenario(t *testing.T) {
	body := `<html><body><a href="/about">About</a><a href="https://other.com/x">Other</a></body></html>`
	links := CollectLinks([]byte(body), "https://example.com/", "example.com", 10)
	if !reflect.DeepEqual(links, []string{"https://example.com/about"}) {
		t.Errorf("got %v", links)
	}
}

func TestCollectLinksGarbage(t *testing.T) {
	if links := CollectLinks([]byte("\x00\x01 not html"), "https://acme.test/", "acme.test", 0); len(links) != 0 {
		t.Errorf("expected no links, got %v", links)
	}
	if links := CollectLinks(nil, "https://acme.test/", "acme.test", 0); len(links) != 0 {
		t.Errorf("expected no links, got %v", links)
	}
}

func TestFocusedDiscoverer(t *testing.T) {
	d := NewFocusedDiscoverer(testLogger)
	seed, _ := url.Parse("https://acme.test/")
	got := d.Discover([]byte(companyHTML), seed.String(), NewScope(seed, false))

	want := []string{
		"https://acme.test/",
		"https://acme.test/about",
		"https://acme.test/products",
		"https://www.acme.test/careers",
	}
	if !reflect.DeepEqual(got.Links, want) {
		t.Errorf("Discover:\n got %v\nwant %v", got.Links, want)
	}
	if got.OffDomain != 1 {
		t.Errorf("expected 1 off-domain link, got %d", got.OffDomain)
	}
	// pdf, nofollow, mailto, javascript, empty
	if got.Skipped != 5 {
		t.Errorf("expected 5 skipped links, got %d", got.Skipped)
	}
}

func TestFocusedDiscovererBaseHref(t *testing.T) {
	body := `<html><head><base href="https://acme.test/docs/"></head><body><a href="intro">Intro</a></body></html>`
	d := NewFocusedDiscoverer(testLogger)
	seed, _ := url.Parse("https://acme.test/")
	got := d.Discover([]byte(body), seed.String(), NewScope(seed, false))
	if !reflect.DeepEqual(got.Links, []string{"https://acme.test/docs/intro"}) {
		t.Errorf("base href not honoured: %v", got.Links)
	}
}

func TestStructuredFacts(t *testing.T) {
	sde := NewStructuredDataExtractor(testLogger)
	facts := sde.Facts([]byte(companyHTML))

	if facts["name"] != "Acme Widgets Inc." {
		t.Errorf("JSON-LD organization name should win, got %q", facts["name"])
	}
	if facts["description"] != "Acme builds industrial widgets" {
		t.Errorf("unexpected description %q", facts["description"])
	}
	if facts["founded"] != "1999" {
		t.Errorf("unexpected founded %q", facts["founded"])
	}
	if facts["title"] != "Acme Widgets" {
		t.Errorf("unexpected title %q", facts["title"])
	}
}

func TestStructuredFactsGraph(t *testing.T) {
	body := `<html><head><script type="application/ld+json">
	{"@graph":[{"@type":"WebPage","name":"Home"},{"@type":["Corporation"],"name":"Graph Co","industry":"Logistics"}]}
	</script></head><body></body></html>`

	facts := NewStructuredDataExtractor(testLogger).Facts([]byte(body))
	if facts["name"] != "Graph Co" || facts["industry"] != "Logistics" {
		t.Errorf("unexpected facts %v", facts)
	}
}

func BenchmarkCollectLinks(b *testing.B) {
	body := []byte(companyHTML)
	for i := 0; i < b.N; i++ {
		CollectLinks(body, "https://acme.test/", "acme.test", 0)
	}
}
