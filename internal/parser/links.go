package parser

import (
	"bytes"
	"errors"
	"log/slog"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/sitebrief/internal/types"
)

// LinkCollector scrapes every anchor on a page. The crawler uses it as the
// fallback when focused discovery finds nothing beyond the seed.
type LinkCollector struct {
	logger *slog.Logger
}

// NewLinkCollector creates a new anchor-scraping link collector.
func NewLinkCollector(logger *slog.Logger) *LinkCollector {
	return &LinkCollector{
		logger: logger.With("component", "link_collector"),
	}
}

// CollectLinks returns up to limit distinct same-domain URLs found in the
// anchors of body. Each result keeps scheme, host and path only.
// A limit <= 0 means no limit.
func CollectLinks(body []byte, sourceURL, domain string, limit int) []string {
	c := &LinkCollector{logger: slog.New(slog.DiscardHandler)}
	return c.Collect(body, sourceURL, ScopeForDomain(domain), limit).Links
}

// Discover implements Discoverer without a limit.
func (c *LinkCollector) Discover(body []byte, pageURL string, scope *Scope) Discovery {
	return c.Collect(body, pageURL, scope, 0)
}

// Collect scans a[href] elements in document order.
func (c *LinkCollector) Collect(body []byte, sourceURL string, scope *Scope, limit int) Discovery {
	var out Discovery

	base, err := url.Parse(sourceURL)
	if err != nil {
		c.logger.Debug("unparseable source URL", "url", sourceURL, "error", err)
		return out
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		c.logger.Debug("unparseable document", "url", sourceURL, "error", err)
		return out
	}

	seen := make(map[string]bool)

	doc.Find("a[href]").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		href, exists := sel.Attr("href")
		if !exists || href == "" {
			out.Skipped++
			return true
		}

		resolved, err := resolveHref(base, href)
		if err != nil {
			var lre *types.LinkResolutionError
			if errors.As(err, &lre) {
				c.logger.Debug("skipping link", "href", lre.Href, "error", lre.Err)
			}
			out.Skipped++
			return true
		}

		if !scope.Contains(resolved) {
			out.OffDomain++
			return true
		}

		norm := NormalizeURL(resolved)
		if seen[norm] {
			return true
		}
		seen[norm] = true
		out.Links = append(out.Links, norm)

		return limit <= 0 || len(out.Links) < limit
	})

	return out
}
