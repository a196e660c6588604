package types

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// Page is the transient result of fetching one URL. It is never persisted.
type Page struct {
	URL      string
	Depth    int
	Seq      int
	Response *Response
	Err      error
}

// OK reports whether the page was fetched successfully.
func (p *Page) OK() bool {
	return p.Err == nil && p.Response != nil
}

// Fragment is the text extracted from one successfully fetched page.
type Fragment struct {
	URL      string            `json:"url"`
	Title    string            `json:"title,omitempty"`
	Date     string            `json:"date,omitempty"`
	Text     string            `json:"text"`
	Stage    string            `json:"stage"`
	Depth    int               `json:"depth"`
	Seq      int               `json:"seq"`
	Words    int               `json:"words,omitempty"`
	Checksum string            `json:"checksum,omitempty"`
	Meta     map[string]string `json:"meta,omitempty"`
}

// NewFragment creates a Fragment for a page URL.
func NewFragment(pageURL string, seq, depth int) *Fragment {
	return &Fragment{
		URL:   pageURL,
		Seq:   seq,
		Depth: depth,
		Meta:  make(map[string]string),
	}
}

// ComputeChecksum hashes the fragment text for content deduplication.
func (f *Fragment) ComputeChecksum() string {
	sum := sha256.Sum256([]byte(f.Text))
	f.Checksum = hex.EncodeToString(sum[:])
	return f.Checksum
}

// CrawlStats summarizes one crawl invocation.
type CrawlStats struct {
	PagesFetched    int           `json:"pages_fetched"`
	PagesFailed     int           `json:"pages_failed"`
	PagesRetried    int           `json:"pages_retried"`
	PagesEmpty      int           `json:"pages_empty"`
	LinksDiscovered int           `json:"links_discovered"`
	LinksOffDomain  int           `json:"links_off_domain"`
	LinksDuplicate  int           `json:"links_duplicate"`
	LinksOverBudget int           `json:"links_over_budget"`
	DuplicateText   int           `json:"duplicate_text"`
	FallbackUsed    bool          `json:"fallback_used"`
	Elapsed         time.Duration `json:"elapsed"`
}

// Corpus is the ordered collection of fragments produced by one crawl.
type Corpus struct {
	StartURL  string      `json:"start_url"`
	Fragments []*Fragment `json:"fragments"`
	Stats     CrawlStats  `json:"stats"`

	// SiteFacts holds structured hints (organization name, description)
	// found on the seed page.
	SiteFacts map[string]string `json:"site_facts,omitempty"`
}

// NewCorpus creates an empty corpus rooted at startURL.
func NewCorpus(startURL string) *Corpus {
	return &Corpus{StartURL: startURL}
}

// Add appends a fragment.
func (c *Corpus) Add(f *Fragment) {
	c.Fragments = append(c.Fragments, f)
}

// Sort orders fragments by admission sequence and drops every fragment
// whose checksum matches an earlier one. Fragments without a checksum are
// never dropped. It returns the number of fragments removed.
func (c *Corpus) Sort() int {
	sort.SliceStable(c.Fragments, func(i, j int) bool {
		return c.Fragments[i].Seq < c.Fragments[j].Seq
	})

	seen := make(map[string]bool)
	kept := c.Fragments[:0]
	for _, f := range c.Fragments {
		if f.Checksum != "" {
			if seen[f.Checksum] {
				continue
			}
			seen[f.Checksum] = true
		}
		kept = append(kept, f)
	}
	removed := len(c.Fragments) - len(kept)
	clear(c.Fragments[len(kept):])
	c.Fragments = kept
	c.Stats.DuplicateText += removed
	return removed
}

// Len returns the number of fragments.
func (c *Corpus) Len() int {
	return len(c.Fragments)
}

// Empty reports whether the corpus carries no text at all.
func (c *Corpus) Empty() bool {
	return strings.TrimSpace(c.Text()) == ""
}

// URLs returns the provenance of every fragment in corpus order.
func (c *Corpus) URLs() []string {
	urls := make([]string, 0, len(c.Fragments))
	for _, f := range c.Fragments {
		urls = append(urls, f.URL)
	}
	return urls
}

// Text concatenates non-empty fragment texts with a single space.
func (c *Corpus) Text() string {
	parts := make([]string, 0, len(c.Fragments))
	for _, f := range c.Fragments {
		if f.Text != "" {
			parts = append(parts, f.Text)
		}
	}
	return strings.Join(parts, " ")
}
