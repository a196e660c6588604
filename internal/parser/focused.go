package parser

import (
	"bytes"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// resourceExtensions are paths that never hold page text.
var resourceExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	".svg": true, ".ico": true, ".bmp": true, ".tif": true, ".tiff": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true, ".zip": true, ".gz": true, ".tar": true,
	".rar": true, ".7z": true, ".dmg": true, ".exe": true, ".msi": true,
	".mp3": true, ".mp4": true, ".mov": true, ".avi": true, ".webm": true,
	".wav": true, ".css": true, ".js": true, ".json": true, ".xml": true,
	".rss": true, ".atom": true, ".woff": true, ".woff2": true, ".ttf": true,
}

// FocusedDiscoverer finds followable page links with XPath. It honours
// <base href>, skips rel="nofollow" anchors and links to non-page resources.
type FocusedDiscoverer struct {
	logger *slog.Logger
}

// NewFocusedDiscoverer creates the primary link discovery strategy.
func NewFocusedDiscoverer(logger *slog.Logger) *FocusedDiscoverer {
	return &FocusedDiscoverer{
		logger: logger.With("component", "focused_discovery"),
	}
}

// Discover implements Discoverer.
func (d *FocusedDiscoverer) Discover(body []byte, pageURL string, scope *Scope) Discovery {
	var out Discovery

	base, err := url.Parse(pageURL)
	if err != nil {
		return out
	}

	doc, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		d.logger.Debug("unparseable document", "url", pageURL, "error", err)
		return out
	}

	if b := htmlquery.FindOne(doc, "//base[@href]"); b != nil {
		if resolved, err := resolveHref(base, htmlquery.SelectAttr(b, "href")); err == nil {
			base = resolved
		}
	}

	nodes, err := htmlquery.QueryAll(doc, "//a[@href] | //area[@href]")
	if err != nil {
		d.logger.Warn("invalid xpath", "error", err)
		return out
	}

	seen := make(map[string]bool)
	for _, node := range nodes {
		if isNoFollow(node) {
			out.Skipped++
			continue
		}

		resolved, err := resolveHref(base, htmlquery.SelectAttr(node, "href"))
		if err != nil {
			out.Skipped++
			continue
		}

		if resourceExtensions[strings.ToLower(path.Ext(resolved.Path))] {
			out.Skipped++
			continue
		}

		if !scope.Contains(resolved) {
			out.OffDomain++
			continue
		}

		norm := NormalizeURL(resolved)
		if seen[norm] {
			continue
		}
		seen[norm] = true
		out.Links = append(out.Links, norm)
	}

	return out
}

func isNoFollow(node *html.Node) bool {
	for _, rel := range strings.Fields(strings.ToLower(htmlquery.SelectAttr(node, "rel"))) {
		if rel == "nofollow" {
			return true
		}
	}
	return false
}
