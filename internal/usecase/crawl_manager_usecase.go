package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/site-crawler/internal/entity"
	"github.com/user/site-crawler/internal/repository"
)

// CrawlManager defines the interface for submitting crawls and checking on them.
type CrawlManager interface {
	Submit(ctx context.Context, rawURL string, fresh bool) (*entity.CrawlRun, error)
	GetRun(ctx context.Context, crawlID string) (*entity.CrawlRun, error)
	GetPageStatus(ctx context.Context, rawURL string) (*entity.PageStatus, error)
	// Shutdown cancels running crawls and waits for them to drain.
	Shutdown()
}

type runState struct {
	run    entity.CrawlRun
	ok     atomic.Int64
	failed atomic.Int64
}

type crawlManagerUseCase struct {
	deps    Dependencies
	results repository.CrawlResultRepository

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	runs   map[string]*runState
	closed bool
}

// NewCrawlManager creates a CrawlManager. Crawls run in the background under
// a context derived from parent. results may be nil when nothing is persisted.
func NewCrawlManager(
	parent context.Context,
	deps Dependencies,
	results repository.CrawlResultRepository,
) (CrawlManager, error) {
	if _, err := NewCrawlEngine(deps); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(parent)
	return &crawlManagerUseCase{
		deps:    deps,
		results: results,
		ctx:     ctx,
		cancel:  cancel,
		runs:    make(map[string]*runState),
	}, nil
}

func (uc *crawlManagerUseCase) Submit(ctx context.Context, rawURL string, fresh bool) (*entity.CrawlRun, error) {
	startURL, err := url.Parse(rawURL)
	if err != nil || !startURL.IsAbs() || startURL.Hostname() == "" {
		return nil, ErrMissingHost
	}
	crawlID := CrawlID(startURL)

	rs := &runState{run: entity.CrawlRun{
		ID:        crawlID,
		StartURL:  startURL.String(),
		Status:    entity.RunRunning,
		StartedAt: time.Now(),
	}}
	deps := uc.deps
	deps.Observer = &countingObserver{next: uc.deps.Observer, state: rs}
	engine, err := NewCrawlEngine(deps)
	if err != nil {
		return nil, err
	}

	// Reserve the crawl ID under the lock; clearing state is store I/O and
	// happens after it is released.
	uc.mu.Lock()
	if uc.closed {
		uc.mu.Unlock()
		return nil, ErrShuttingDown
	}
	previous, ok := uc.runs[crawlID]
	if ok && previous.run.Status == entity.RunRunning {
		snapshot := previous.snapshot()
		uc.mu.Unlock()
		return &snapshot, ErrCrawlInProgress
	}
	uc.runs[crawlID] = rs
	uc.wg.Add(1)
	snapshot := rs.snapshot()
	uc.mu.Unlock()

	if fresh {
		if err := uc.deps.State.Clear(ctx, crawlID); err != nil {
			uc.mu.Lock()
			if previous != nil {
				uc.runs[crawlID] = previous
			} else {
				delete(uc.runs, crawlID)
			}
			uc.mu.Unlock()
			uc.wg.Done()
			return nil, fmt.Errorf("failed to clear crawl state: %w", err)
		}
	}

	go uc.execute(engine, startURL, rs)
	return &snapshot, nil
}

func (uc *crawlManagerUseCase) execute(engine *CrawlEngine, startURL *url.URL, rs *runState) {
	defer uc.wg.Done()

	err := engine.Crawl(uc.ctx, startURL)

	uc.mu.Lock()
	defer uc.mu.Unlock()
	finished := time.Now()
	rs.run.FinishedAt = &finished
	if err != nil {
		rs.run.Status = entity.RunFailed
		rs.run.Error = err.Error()
		return
	}
	rs.run.Status = entity.RunCompleted
}

func (uc *crawlManagerUseCase) GetRun(_ context.Context, crawlID string) (*entity.CrawlRun, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	rs, ok := uc.runs[crawlID]
	if !ok {
		return nil, ErrUnknownCrawl
	}
	snapshot := rs.snapshot()
	return &snapshot, nil
}

func (uc *crawlManagerUseCase) GetPageStatus(ctx context.Context, rawURL string) (*entity.PageStatus, error) {
	if uc.results == nil {
		return nil, ErrResultsDisabled
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	// Results are keyed by the URL as it was crawled, i.e. normalized.
	key := u.String()
	if u.IsAbs() {
		key = CrawlKey(u)
	}

	status, err := uc.results.FindByURL(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return &entity.PageStatus{URL: key, CurrentStatus: entity.PageNotFound}, nil
	}
	if err != nil {
		slog.Error("Error finding page status", "url", key, "error", err)
		return nil, err
	}
	return status, nil
}

func (uc *crawlManagerUseCase) Shutdown() {
	uc.mu.Lock()
	uc.closed = true
	uc.mu.Unlock()
	uc.cancel()
	uc.wg.Wait()
}

// snapshot must be called with the manager lock held.
func (rs *runState) snapshot() entity.CrawlRun {
	run := rs.run
	run.PagesOK = rs.ok.Load()
	run.PagesFailed = rs.failed.Load()
	return run
}

// countingObserver tallies outcomes for one run. A report the next observer
// rejects is re-reported as UNEXPECTED_ERROR, so only accepted reports and
// that final one are counted, which keeps each page counted once.
type countingObserver struct {
	next  repository.CrawlObserver
	state *runState
}

func (o *countingObserver) OnPageCrawled(ctx context.Context, u *url.URL, links []*url.URL) error {
	if err := o.next.OnPageCrawled(ctx, u, links); err != nil {
		return err
	}
	o.state.ok.Add(1)
	return nil
}

func (o *countingObserver) OnCrawlFailed(ctx context.Context, u *url.URL, reason string, cause error) error {
	err := o.next.OnCrawlFailed(ctx, u, reason, cause)
	if err == nil || reason == entity.ReasonUnexpectedError {
		o.state.failed.Add(1)
	}
	return err
}
