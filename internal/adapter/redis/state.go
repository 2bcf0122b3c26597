package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/user/site-crawler/internal/repository"
)

const keyPrefix = "crawler:"

// State implements repository.CrawlState, keeping each crawl under its own key namespace.
type State struct {
	client redis.UniversalClient
}

// NewState creates a new instance of State.
func NewState(client redis.UniversalClient) *State {
	return &State{client: client}
}

func namespace(crawlID string) string {
	return keyPrefix + crawlID
}

func (s *State) Frontier(crawlID string) repository.Frontier {
	return NewQueueRepo(s.client, namespace(crawlID))
}

func (s *State) Visited(crawlID string) repository.VisitedSet {
	return NewVisitedRepo(s.client, namespace(crawlID))
}

func (s *State) InFlight(crawlID string) repository.InFlightSet {
	return NewInFlightRepo(s.client, namespace(crawlID))
}

// Clear deletes every key of a crawl.
func (s *State) Clear(ctx context.Context, crawlID string) error {
	ns := namespace(crawlID)
	if err := s.client.Del(ctx, ns+frontierKeySuffix, ns+visitedKeySuffix, ns+inFlightKeySuffix).Err(); err != nil {
		return fmt.Errorf("failed to clear crawl state %s: %w", crawlID, err)
	}
	return nil
}

// Ping checks connectivity.
func (s *State) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
