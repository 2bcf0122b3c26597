package memory

import (
	"context"
	"net/url"
	"sort"
	"sync"
)

// InFlightRepoImpl implements repository.InFlightSet over a map keyed by URL string.
type InFlightRepoImpl struct {
	mu    sync.Mutex
	items map[string]*url.URL
}

// NewInFlightRepo creates an empty in-flight set.
func NewInFlightRepo() *InFlightRepoImpl {
	return &InFlightRepoImpl{items: make(map[string]*url.URL)}
}

func (s *InFlightRepoImpl) Add(_ context.Context, u *url.URL) error {
	c := *u
	s.mu.Lock()
	s.items[c.String()] = &c
	s.mu.Unlock()
	return nil
}

func (s *InFlightRepoImpl) Remove(_ context.Context, u *url.URL) error {
	s.mu.Lock()
	delete(s.items, u.String())
	s.mu.Unlock()
	return nil
}

// Members returns the recorded URLs in lexical order.
func (s *InFlightRepoImpl) Members(_ context.Context) ([]*url.URL, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*url.URL, 0, len(s.items))
	for _, u := range s.items {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}
