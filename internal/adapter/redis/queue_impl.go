package redis

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/redis/go-redis/v9"
	"github.com/user/site-crawler/internal/repository"
)

const frontierKeySuffix = ":frontier"

// QueueRepoImpl provides a concrete implementation for the Frontier interface using a Redis list.
type QueueRepoImpl struct {
	client redis.UniversalClient
	key    string
}

// NewQueueRepo creates a frontier stored under the given crawl namespace.
func NewQueueRepo(client redis.UniversalClient, namespace string) *QueueRepoImpl {
	return &QueueRepoImpl{client: client, key: namespace + frontierKeySuffix}
}

// Enqueue appends a URL to the right side of the Redis list.
func (r *QueueRepoImpl) Enqueue(ctx context.Context, u *url.URL) error {
	return r.client.RPush(ctx, r.key, u.String()).Err()
}

// Dequeue pops a URL from the left side of the list. LPOP does not block;
// an empty list surfaces as repository.ErrFrontierEmpty.
func (r *QueueRepoImpl) Dequeue(ctx context.Context) (*url.URL, error) {
	raw, err := r.client.LPop(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrFrontierEmpty
		}
		return nil, err
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("corrupt frontier entry %q: %w", raw, err)
	}
	return u, nil
}

// IsEmpty reports whether the list length is zero.
func (r *QueueRepoImpl) IsEmpty(ctx context.Context) (bool, error) {
	n, err := r.client.LLen(ctx, r.key).Result()
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// Size returns the current number of items in the queue.
func (r *QueueRepoImpl) Size(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, r.key).Result()
}
