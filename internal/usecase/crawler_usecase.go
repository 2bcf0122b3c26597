package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/user/site-crawler/internal/rendezvous"
	"github.com/user/site-crawler/internal/repository"
	"github.com/user/site-crawler/internal/urlnorm"
	"github.com/user/site-crawler/pkg/metrics"
	"github.com/user/site-crawler/pkg/utils"
)

// Crawler defines the interface for crawling a single site.
type Crawler interface {
	Crawl(ctx context.Context, startURL *url.URL) error
}

// Dependencies are the collaborators a CrawlEngine is built from.
type Dependencies struct {
	State                 repository.CrawlState
	Fetcher               repository.PageFetcher
	Extractor             repository.LinkExtractor
	Observer              repository.CrawlObserver
	Metrics               *metrics.Metrics
	MaxConcurrentRequests int
}

// CrawlEngine drives the admission loop and detects when a crawl is done.
type CrawlEngine struct {
	deps    Dependencies
	permits *semaphore.Weighted
}

// NewCrawlEngine creates a new instance of the crawl engine. The permit
// pool is shared by every crawl the engine runs.
func NewCrawlEngine(deps Dependencies) (*CrawlEngine, error) {
	if deps.MaxConcurrentRequests <= 0 {
		return nil, ErrInvalidConcurrency
	}
	if deps.State == nil || deps.Fetcher == nil || deps.Extractor == nil || deps.Observer == nil {
		return nil, errors.New("crawl engine requires state, fetcher, extractor and observer")
	}
	return &CrawlEngine{
		deps:    deps,
		permits: semaphore.NewWeighted(int64(deps.MaxConcurrentRequests)),
	}, nil
}

// CrawlID returns the identifier under which a crawl's state is stored.
func CrawlID(startURL *url.URL) string {
	return utils.HashURL(urlnorm.Key(startURL))
}

// Crawl visits every page reachable from startURL on the same host and
// returns once the frontier is empty and no task is running. Only store
// failures in the admission loop, or ctx ending, make it return an error;
// in both cases it first waits for dispatched tasks to finish. Pages left
// unfinished by an earlier interrupted run are processed first.
func (e *CrawlEngine) Crawl(ctx context.Context, startURL *url.URL) error {
	if startURL == nil || startURL.Hostname() == "" {
		return ErrMissingHost
	}
	start := urlnorm.Normalize(startURL)
	crawlID := CrawlID(start)
	stores := crawlStores{
		frontier: e.deps.State.Frontier(crawlID),
		visited:  e.deps.State.Visited(crawlID),
		inFlight: e.deps.State.InFlight(crawlID),
	}

	processor := &PageProcessor{
		fetcher:   e.deps.Fetcher,
		extractor: e.deps.Extractor,
		observer:  e.deps.Observer,
		frontier:  stores.frontier,
		visited:   stores.visited,
		scope:     urlnorm.NewScope(start),
		permits:   e.permits,
		metrics:   e.deps.Metrics,
	}

	slog.Info("Starting crawl",
		"url", start.String(),
		"domain", processor.scope.Domain(),
		"crawl_id", crawlID,
		"max_concurrent_requests", e.deps.MaxConcurrentRequests,
	)
	began := time.Now()
	dispatched, err := e.run(ctx, start, stores, processor)
	duration := time.Since(began)

	attrs := append([]any{
		"url", start.String(),
		"dispatched", dispatched,
		"duration_ms", duration.Milliseconds(),
	}, stores.progress(ctx)...)
	if err != nil {
		e.deps.Metrics.ObserveCrawl("failure", duration)
		slog.Error("Crawl aborted", append(attrs, "error", err)...)
		return err
	}
	e.deps.Metrics.ObserveCrawl("success", duration)
	slog.Info("Crawl finished", attrs...)
	return nil
}

type crawlStores struct {
	frontier repository.Frontier
	visited  repository.VisitedSet
	inFlight repository.InFlightSet
}

// progress returns the pending and visited counts as log attributes. Stores
// that cannot be read are left out.
func (s crawlStores) progress(ctx context.Context) []any {
	ctx = context.WithoutCancel(ctx)
	var attrs []any
	if n, err := s.frontier.Size(ctx); err == nil {
		attrs = append(attrs, "pending", n)
	}
	if n, err := s.visited.Count(ctx); err == nil {
		attrs = append(attrs, "visited", n)
	}
	return attrs
}

func (e *CrawlEngine) run(
	ctx context.Context,
	start *url.URL,
	stores crawlStores,
	processor *PageProcessor,
) (dispatched int64, err error) {
	frontier, visited, inFlight := stores.frontier, stores.visited, stores.inFlight

	// The coordinator is the phaser's permanent party until it returns.
	phaser := rendezvous.New(1)
	defer phaser.ArriveAndDeregister()
	defer func() {
		if err != nil {
			drain(phaser)
		}
	}()

	dispatch := func(u *url.URL) {
		// Register before dispatch so the barrier always sees this task.
		phaser.Register()
		dispatched++
		go func() {
			defer phaser.ArriveAndDeregister()
			if !processor.process(ctx, u) {
				return
			}
			if err := inFlight.Remove(context.WithoutCancel(ctx), u); err != nil {
				slog.Error("Failed to clear in-flight record", "url", u.String(), "error", err)
			}
		}()
	}

	// Pages an earlier run claimed but never finished already hold their
	// visited entry, so they bypass the claim.
	leftover, err := inFlight.Members(ctx)
	if err != nil {
		return dispatched, fmt.Errorf("failed to load in-flight pages: %w", err)
	}
	if len(leftover) > 0 {
		slog.Info("Resuming interrupted pages", "count", len(leftover))
	}
	for _, u := range leftover {
		dispatch(u)
	}

	if err := frontier.Enqueue(ctx, start); err != nil {
		return dispatched, fmt.Errorf("failed to seed frontier: %w", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return dispatched, err
		}

		next, err := frontier.Dequeue(ctx)
		if errors.Is(err, repository.ErrFrontierEmpty) {
			// An empty frontier is not the end: running tasks may still
			// enqueue. Wait for all of them, then look again.
			if _, err := phaser.ArriveAndAwaitAdvance(ctx); err != nil {
				return dispatched, err
			}
			empty, err := frontier.IsEmpty(ctx)
			if err != nil {
				return dispatched, fmt.Errorf("failed to inspect frontier: %w", err)
			}
			if empty && phaser.RegisteredParties() == 1 {
				return dispatched, nil
			}
			continue
		}
		if err != nil {
			return dispatched, fmt.Errorf("failed to dequeue from frontier: %w", err)
		}

		// A dequeued URL is gone from the frontier, so the claim and the
		// in-flight record must land even if ctx ends in between.
		claimCtx := context.WithoutCancel(ctx)
		first, err := visited.MarkVisited(claimCtx, next)
		if err != nil {
			return dispatched, fmt.Errorf("failed to claim %s: %w", next, err)
		}
		if !first {
			continue
		}
		if err := inFlight.Add(claimCtx, next); err != nil {
			return dispatched, fmt.Errorf("failed to record %s as in flight: %w", next, err)
		}
		dispatch(next)
	}
}

// drain blocks until every dispatched task has deregistered. The coordinator
// registers nothing new while draining, so one phase advance is enough.
func drain(phaser *rendezvous.Phaser) {
	if phaser.RegisteredParties() > 1 {
		_, _ = phaser.ArriveAndAwaitAdvance(context.Background())
	}
}

// CrawlKey returns the normalized form under which a URL is deduplicated and recorded.
func CrawlKey(u *url.URL) string {
	return urlnorm.Key(u)
}
