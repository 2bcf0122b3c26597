// Package urlnorm canonicalizes URLs into dedup keys and decides crawl scope.
package urlnorm

import (
	"log/slog"
	"net/url"
	"strings"
)

// Normalize returns a copy of u with the fragment removed, an empty path
// replaced by "/" and a single trailing slash stripped from longer paths.
// Scheme, userinfo, host, port and query are kept verbatim. If the result
// cannot be re-parsed, u is returned unchanged.
func Normalize(u *url.URL) *url.URL {
	if u == nil {
		return nil
	}
	if u.Opaque != "" {
		// mailto:, urn: and friends have no hierarchical path to fix up.
		n := *u
		n.Fragment, n.RawFragment = "", ""
		return &n
	}

	escaped := u.EscapedPath()
	if escaped == "" {
		escaped = "/"
	}
	if len(escaped) > 1 && strings.HasSuffix(escaped, "/") {
		escaped = escaped[:len(escaped)-1]
	}

	path, err := url.PathUnescape(escaped)
	if err != nil {
		slog.Warn("Failed to normalize URL, using original", "url", u.String(), "error", err)
		return u
	}

	n := *u
	n.Path = path
	n.RawPath = escaped
	n.Fragment = ""
	n.RawFragment = ""

	if _, err := url.Parse(n.String()); err != nil {
		slog.Warn("Failed to normalize URL, using original", "url", u.String(), "error", err)
		return u
	}
	return &n
}

// Key returns the identity used for deduplication.
func Key(u *url.URL) string {
	return Normalize(u).String()
}
