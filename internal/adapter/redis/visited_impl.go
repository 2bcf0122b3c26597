package redis

import (
	"context"
	"net/url"

	"github.com/redis/go-redis/v9"
)

const visitedKeySuffix = ":visited"

// VisitedRepoImpl provides a concrete implementation for the VisitedSet interface using a Redis set.
type VisitedRepoImpl struct {
	client redis.UniversalClient
	key    string
}

// NewVisitedRepo creates a visited set stored under the given crawl namespace.
func NewVisitedRepo(client redis.UniversalClient, namespace string) *VisitedRepoImpl {
	return &VisitedRepoImpl{client: client, key: namespace + visitedKeySuffix}
}

// MarkVisited adds the URL to the set. SADD is atomic and returns the number
// of members actually added, so exactly one caller sees 1 for a given URL.
func (r *VisitedRepoImpl) MarkVisited(ctx context.Context, u *url.URL) (bool, error) {
	added, err := r.client.SAdd(ctx, r.key, u.String()).Result()
	if err != nil {
		return false, err
	}
	return added == 1, nil
}

// IsVisited checks set membership.
func (r *VisitedRepoImpl) IsVisited(ctx context.Context, u *url.URL) (bool, error) {
	return r.client.SIsMember(ctx, r.key, u.String()).Result()
}

// Count returns the number of URLs claimed so far.
func (r *VisitedRepoImpl) Count(ctx context.Context) (int64, error) {
	return r.client.SCard(ctx, r.key).Result()
}
