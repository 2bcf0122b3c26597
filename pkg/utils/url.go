package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
)

// HashURL returns the hex SHA-256 of a URL string.
// It doubles as the crawl ID and the Redis key namespace for a start URL.
func HashURL(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

// Resolve resolves a possibly relative reference against base.
func Resolve(base *url.URL, ref string) (*url.URL, error) {
	relURL, err := url.Parse(ref)
	if err != nil {
		return nil, err
	}
	return base.ResolveReference(relURL), nil
}
