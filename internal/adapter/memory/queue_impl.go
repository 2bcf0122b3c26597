// Package memory holds in-process implementations of the crawl state stores.
// State lives only as long as the process.
package memory

import (
	"context"
	"net/url"
	"sync"

	"github.com/user/site-crawler/internal/repository"
)

// QueueRepoImpl is a mutex-guarded FIFO implementing repository.Frontier.
type QueueRepoImpl struct {
	mu    sync.Mutex
	items []*url.URL
}

// NewQueueRepo creates an empty in-memory frontier.
func NewQueueRepo() *QueueRepoImpl {
	return &QueueRepoImpl{}
}

// Enqueue appends a copy of u to the back of the queue.
func (q *QueueRepoImpl) Enqueue(_ context.Context, u *url.URL) error {
	c := *u
	q.mu.Lock()
	q.items = append(q.items, &c)
	q.mu.Unlock()
	return nil
}

// Dequeue pops the oldest URL or returns repository.ErrFrontierEmpty.
func (q *QueueRepoImpl) Dequeue(_ context.Context) (*url.URL, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, repository.ErrFrontierEmpty
	}
	u := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return u, nil
}

// IsEmpty reports whether the queue currently holds no URLs.
func (q *QueueRepoImpl) IsEmpty(_ context.Context) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0, nil
}

// Size returns the number of pending URLs.
func (q *QueueRepoImpl) Size(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items)), nil
}
