package repository

import (
	"context"
	"net/url"
)

// CrawlObserver is the reporting sink for page outcomes.
type CrawlObserver interface {
	// OnPageCrawled receives every link discovered on the page, not just the ones enqueued.
	OnPageCrawled(ctx context.Context, u *url.URL, links []*url.URL) error
	// OnCrawlFailed receives the reason code and, for unexpected failures, the cause.
	OnCrawlFailed(ctx context.Context, u *url.URL, reason string, cause error) error
}
