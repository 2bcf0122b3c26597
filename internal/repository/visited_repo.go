package repository

import (
	"context"
	"net/url"
)

// VisitedSet defines the deduplication authority for one crawl.
type VisitedSet interface {
	// MarkVisited atomically adds a URL and reports whether this call was the first to add it.
	MarkVisited(ctx context.Context, u *url.URL) (bool, error)
	// IsVisited is a read-only membership test.
	IsVisited(ctx context.Context, u *url.URL) (bool, error)
	// Count returns the number of URLs claimed so far.
	Count(ctx context.Context) (int64, error)
}

// InFlightSet holds the URLs a crawl has claimed but not finished processing.
// Entries left behind by an interrupted run are picked up by the next one.
type InFlightSet interface {
	Add(ctx context.Context, u *url.URL) error
	Remove(ctx context.Context, u *url.URL) error
	Members(ctx context.Context) ([]*url.URL, error)
}

// CrawlState hands out the per-crawl stores belonging to a crawl ID.
type CrawlState interface {
	Frontier(crawlID string) Frontier
	Visited(crawlID string) VisitedSet
	InFlight(crawlID string) InFlightSet
	// Clear drops all state stored under the crawl ID.
	Clear(ctx context.Context, crawlID string) error
}
