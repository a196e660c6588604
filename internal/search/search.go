// Package search looks up web results through the Google Custom Search
// JSON API.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/IshaanNene/sitebrief/internal/config"
)

const (
	// NoResults is the diagnostic returned when the API finds nothing.
	NoResults = "No results found"
	// errorPrefix starts the diagnostic returned on upstream failures.
	errorPrefix = "No results found due to error: "
)

// Result is one search hit. A result with a non-empty Diagnostic is not a
// hit but an explanation of why there are none.
type Result struct {
	Index      int    `json:"index"`
	Title      string `json:"title"`
	Link       string `json:"link"`
	Snippet    string `json:"snippet"`
	Diagnostic string `json:"diagnostic,omitempty"`
}

// IsDiagnostic reports whether results carry a diagnostic instead of hits.
func IsDiagnostic(results []Result) bool {
	return len(results) == 1 && results[0].Diagnostic != ""
}

// Client queries the search API.
type Client struct {
	cfg    config.SearchConfig
	client *http.Client
	logger *slog.Logger
}

// NewClient creates a search client.
func NewClient(cfg config.SearchConfig, logger *slog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With("component", "search"),
	}
}

type apiResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Search returns up to numResults hits for query, in API order. It never
// returns an error: failures come back as a single diagnostic result.
// numResults <= 0 uses the configured default.
func (c *Client) Search(ctx context.Context, query string, numResults int) []Result {
	if numResults <= 0 {
		numResults = c.cfg.NumResults
	}

	params := url.Values{}
	params.Set("key", c.cfg.APIKey)
	params.Set("cx", c.cfg.EngineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(numResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return c.diagnostic(query, err.Error())
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return c.diagnostic(query, err.Error())
	}
	defer resp.Body.Close()

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return c.diagnostic(query, fmt.Sprintf("decode response (HTTP %d): %v", resp.StatusCode, err))
	}
	if body.Error != nil {
		return c.diagnostic(query, body.Error.Message)
	}
	if len(body.Items) == 0 {
		c.logger.Info("search returned no items", "query", query)
		return []Result{{Diagnostic: NoResults}}
	}

	results := make([]Result, len(body.Items))
	for i, item := range body.Items {
		results[i] = Result{
			Index:   i,
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
		}
	}
	c.logger.Debug("search complete", "query", query, "results", len(results))
	return results
}

func (c *Client) diagnostic(query, msg string) []Result {
	c.logger.Warn("search failed", "query", query, "error", msg)
	return []Result{{Diagnostic: errorPrefix + msg}}
}
