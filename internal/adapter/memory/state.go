package memory

import (
	"context"
	"sync"

	"github.com/user/site-crawler/internal/repository"
)

type crawlState struct {
	frontier *QueueRepoImpl
	visited  *VisitedRepoImpl
	inFlight *InFlightRepoImpl
}

// State implements repository.CrawlState with one frontier/visited pair per crawl ID.
type State struct {
	mu     sync.Mutex
	crawls map[string]*crawlState
}

// NewState creates an empty in-memory crawl state.
func NewState() *State {
	return &State{crawls: make(map[string]*crawlState)}
}

func (s *State) get(crawlID string) *crawlState {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.crawls[crawlID]
	if !ok {
		cs = &crawlState{frontier: NewQueueRepo(), visited: NewVisitedRepo(), inFlight: NewInFlightRepo()}
		s.crawls[crawlID] = cs
	}
	return cs
}

// Frontier returns the frontier for crawlID, creating it on first use.
func (s *State) Frontier(crawlID string) repository.Frontier {
	return s.get(crawlID).frontier
}

// Visited returns the visited set for crawlID, creating it on first use.
func (s *State) Visited(crawlID string) repository.VisitedSet {
	return s.get(crawlID).visited
}

// InFlight returns the in-flight set for crawlID, creating it on first use.
func (s *State) InFlight(crawlID string) repository.InFlightSet {
	return s.get(crawlID).inFlight
}

// Clear forgets everything stored for crawlID.
func (s *State) Clear(_ context.Context, crawlID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.crawls, crawlID)
	return nil
}
