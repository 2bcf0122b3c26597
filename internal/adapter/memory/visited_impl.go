package memory

import (
	"context"
	"net/url"
	"sync"
)

// VisitedRepoImpl implements repository.VisitedSet over a map keyed by URL string.
type VisitedRepoImpl struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewVisitedRepo creates an empty visited set.
func NewVisitedRepo() *VisitedRepoImpl {
	return &VisitedRepoImpl{seen: make(map[string]struct{})}
}

// MarkVisited adds u and reports whether it was absent before.
func (v *VisitedRepoImpl) MarkVisited(_ context.Context, u *url.URL) (bool, error) {
	key := u.String()
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.seen[key]; ok {
		return false, nil
	}
	v.seen[key] = struct{}{}
	return true, nil
}

// IsVisited reports whether u has been marked.
func (v *VisitedRepoImpl) IsVisited(_ context.Context, u *url.URL) (bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.seen[u.String()]
	return ok, nil
}

// Count returns the number of distinct URLs marked.
func (v *VisitedRepoImpl) Count(_ context.Context) (int64, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return int64(len(v.seen)), nil
}
