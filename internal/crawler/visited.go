package crawler

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Visited tracks normalized URLs that have been admitted for fetching.
type Visited struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewVisited creates an empty Visited set.
func NewVisited(capacity int) *Visited {
	return &Visited{seen: make(map[string]struct{}, capacity)}
}

// Admit inserts url and reports whether it was new. The check and the
// insert happen under one lock.
func (v *Visited) Admit(normURL string) bool {
	key := hashURL(normURL)

	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.seen[key]; ok {
		return false
	}
	v.seen[key] = struct{}{}
	return true
}

// Has reports whether url was admitted.
func (v *Visited) Has(normURL string) bool {
	key := hashURL(normURL)

	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.seen[key]
	return ok
}

// Len returns the number of admitted URLs.
func (v *Visited) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.seen)
}

// hashURL creates a compact 128-bit key for a normalized URL.
func hashURL(normURL string) string {
	h := sha256.Sum256([]byte(normURL))
	return hex.EncodeToString(h[:16])
}
