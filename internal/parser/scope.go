package parser

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/IshaanNene/sitebrief/internal/types"
)

// NormalizeURL reduces u to the identity used for deduplication:
// lowercase scheme and host, no default port, no query or fragment,
// and "/" for an empty path.
func NormalizeURL(u *url.URL) string {
	n := url.URL{
		Scheme:  strings.ToLower(u.Scheme),
		Host:    canonicalHost(u),
		Path:    u.Path,
		RawPath: u.RawPath,
	}
	if n.Path == "" {
		n.Path, n.RawPath = "/", ""
	}
	return n.String()
}

// NormalizeString parses and normalizes a raw absolute URL.
func NormalizeString(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", types.ErrInvalidURL
	}
	return NormalizeURL(u), nil
}

// canonicalHost lowercases the host and drops the scheme's default port.
func canonicalHost(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	scheme := strings.ToLower(u.Scheme)
	if port == "" || (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		if strings.Contains(host, ":") {
			return "[" + host + "]"
		}
		return host
	}
	return net.JoinHostPort(host, port)
}

// Scope decides whether a URL belongs to the crawl's domain.
type Scope struct {
	host       string
	registered string
	subdomains bool
}

// NewScope builds the domain scope of a seed URL. With includeSubdomains
// any host under the same registrable domain is in scope.
func NewScope(seed *url.URL, includeSubdomains bool) *Scope {
	host := scopeHost(seed)
	s := &Scope{host: host, subdomains: includeSubdomains}
	if includeSubdomains {
		if reg, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(seed.Hostname())); err == nil {
			s.registered = reg
		}
	}
	return s
}

// ScopeForDomain builds a scope from a bare domain such as "example.com".
func ScopeForDomain(domain string) *Scope {
	domain = strings.TrimSpace(domain)
	if !strings.Contains(domain, "://") {
		domain = "http://" + domain
	}
	u, err := url.Parse(domain)
	if err != nil {
		return &Scope{}
	}
	return NewScope(u, false)
}

// Host returns the canonical host the scope was built from.
func (s *Scope) Host() string {
	return s.host
}

// Contains reports whether u is inside the scope.
func (s *Scope) Contains(u *url.URL) bool {
	if u == nil || u.Host == "" || s.host == "" {
		return false
	}
	if scopeHost(u) == s.host {
		return true
	}
	if s.subdomains && s.registered != "" && u.Port() == "" {
		h := strings.ToLower(u.Hostname())
		return h == s.registered || strings.HasSuffix(h, "."+s.registered)
	}
	return false
}

// scopeHost treats "www.example.com" and "example.com" as the same site.
func scopeHost(u *url.URL) string {
	return strings.TrimPrefix(canonicalHost(u), "www.")
}
