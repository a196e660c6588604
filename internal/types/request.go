package types

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Request represents a page fetch scheduled by the crawler.
type Request struct {
	// URL is the target URL to fetch.
	URL *url.URL

	// Headers are custom HTTP headers to send with the request.
	Headers http.Header

	// Depth is the number of link hops from the seed URL.
	Depth int

	// Seq is the admission order; fragments are reported in this order.
	Seq int

	// Timeout overrides the global request timeout for this request.
	Timeout time.Duration

	// ParentURL tracks which page this request was discovered on.
	ParentURL string

	// CreatedAt is when this request was admitted.
	CreatedAt time.Time
}

// NewRequest creates a new GET Request for rawURL.
func NewRequest(rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	return &Request{
		URL:       u,
		Headers:   make(http.Header),
		CreatedAt: time.Now(),
	}, nil
}

// URLString returns the string representation of the request URL.
func (r *Request) URLString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}

// Domain returns the hostname of the request URL.
func (r *Request) Domain() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.Hostname()
}
