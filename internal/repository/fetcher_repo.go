package repository

import (
	"context"
	"net/url"

	"github.com/user/site-crawler/internal/entity"
)

// PageFetcher performs the network I/O for one URL and classifies the result.
// Non-HTML successful responses are reported as FetchClientError without content.
type PageFetcher interface {
	Fetch(ctx context.Context, u *url.URL) (entity.FetchOutcome, error)
}

// LinkExtractor returns the absolute http/https links found in a page, without
// duplicates and with non-web schemes and static files already removed.
type LinkExtractor interface {
	Extract(content string, base *url.URL) ([]*url.URL, error)
}
