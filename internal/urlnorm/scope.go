package urlnorm

import (
	"net/url"
	"strings"
)

// Scope is the fixed domain a crawl may visit.
type Scope struct {
	domain string
}

// NewScope captures the allowed domain from the start URL's host.
func NewScope(start *url.URL) Scope {
	return Scope{domain: start.Hostname()}
}

// Domain returns the allowed host.
func (s Scope) Domain() string {
	return s.domain
}

// InScope reports whether u's host equals the allowed domain, ignoring case.
// Subdomains are out of scope, as is any URL without a host.
func (s Scope) InScope(u *url.URL) bool {
	if u == nil || s.domain == "" {
		return false
	}
	host := u.Hostname()
	return host != "" && strings.EqualFold(host, s.domain)
}
