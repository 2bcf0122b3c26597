package repository

import (
	"context"
	"net/url"
)

// Frontier defines a FIFO queue of URLs awaiting a fetch attempt.
// Duplicates may coexist; the VisitedSet collapses them on dequeue.
type Frontier interface {
	// Enqueue adds a URL to the end of the queue. It never blocks waiting for capacity.
	Enqueue(ctx context.Context, u *url.URL) error
	// Dequeue removes and returns the oldest URL, or ErrFrontierEmpty if none is pending.
	Dequeue(ctx context.Context) (*url.URL, error)
	// IsEmpty is an advisory snapshot and may be stale under concurrent mutation.
	IsEmpty(ctx context.Context) (bool, error)
	// Size returns the number of pending URLs, duplicates included.
	Size(ctx context.Context) (int64, error)
}
