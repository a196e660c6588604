package parser

import (
	"net/url"
	"strings"

	"github.com/IshaanNene/sitebrief/internal/types"
)

// Discovery is the outcome of scanning one page for follow-up links.
type Discovery struct {
	// Links are normalized, in-scope URLs in document order.
	Links []string

	// OffDomain counts resolvable links that fell outside the scope.
	OffDomain int

	// Skipped counts hrefs dropped for any other reason.
	Skipped int
}

// Discoverer finds in-scope links on a fetched page.
type Discoverer interface {
	Discover(body []byte, pageURL string, scope *Scope) Discovery
}

// resolveHref turns an href found on base into an absolute http(s) URL.
func resolveHref(base *url.URL, href string) (*url.URL, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return nil, &types.LinkResolutionError{Href: href, Base: base.String(), Err: types.ErrInvalidURL}
	}
	ref, err := url.Parse(href)
	if err != nil {
		return nil, &types.LinkResolutionError{Href: href, Base: base.String(), Err: err}
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil, &types.LinkResolutionError{Href: href, Base: base.String(), Err: types.ErrInvalidURL}
	}
	if resolved.Host == "" {
		return nil, &types.LinkResolutionError{Href: href, Base: base.String(), Err: types.ErrInvalidURL}
	}
	return resolved, nil
}
