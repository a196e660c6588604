package fetcher

import (
	"context"

	"github.com/IshaanNene/sitebrief/internal/types"
)

// Fetcher retrieves pages for the crawler.
type Fetcher interface {
	// Fetch retrieves the content at the given request's URL. Any non-2xx
	// status is reported as a *types.FetchError.
	Fetch(ctx context.Context, req *types.Request) (*types.Response, error)

	// Close releases any resources held by the fetcher.
	Close() error
}

// SessionFetcher is a Fetcher that can open an isolated session sharing its
// connections. The crawler opens one per crawl so cookies set during one
// crawl are never sent in another.
type SessionFetcher interface {
	Fetcher

	// Session returns a Fetcher with its own cookie jar. Closing it leaves
	// the parent usable.
	Session() (Fetcher, error)
}
