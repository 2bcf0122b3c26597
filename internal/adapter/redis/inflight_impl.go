package redis

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"github.com/redis/go-redis/v9"
)

const inFlightKeySuffix = ":inflight"

// InFlightRepoImpl implements repository.InFlightSet with a Redis set.
type InFlightRepoImpl struct {
	client redis.UniversalClient
	key    string
}

// NewInFlightRepo creates an in-flight set stored under the given crawl namespace.
func NewInFlightRepo(client redis.UniversalClient, namespace string) *InFlightRepoImpl {
	return &InFlightRepoImpl{client: client, key: namespace + inFlightKeySuffix}
}

func (r *InFlightRepoImpl) Add(ctx context.Context, u *url.URL) error {
	return r.client.SAdd(ctx, r.key, u.String()).Err()
}

func (r *InFlightRepoImpl) Remove(ctx context.Context, u *url.URL) error {
	return r.client.SRem(ctx, r.key, u.String()).Err()
}

// Members returns the recorded URLs in lexical order.
func (r *InFlightRepoImpl) Members(ctx context.Context) ([]*url.URL, error) {
	raw, err := r.client.SMembers(ctx, r.key).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(raw)
	out := make([]*url.URL, 0, len(raw))
	for _, s := range raw {
		u, err := url.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("corrupt in-flight entry %q: %w", s, err)
		}
		out = append(out, u)
	}
	return out, nil
}
