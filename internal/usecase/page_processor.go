package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/user/site-crawler/internal/entity"
	"github.com/user/site-crawler/internal/repository"
	"github.com/user/site-crawler/internal/urlnorm"
	"github.com/user/site-crawler/pkg/metrics"
)

// PageProcessor runs the single-page pipeline: fetch, classify, extract,
// filter, enqueue, report.
type PageProcessor struct {
	fetcher   repository.PageFetcher
	extractor repository.LinkExtractor
	observer  repository.CrawlObserver
	frontier  repository.Frontier
	visited   repository.VisitedSet
	scope     urlnorm.Scope
	permits   *semaphore.Weighted
	metrics   *metrics.Metrics
}

// ProcessPage never panics and never returns an error: every failure is
// handed to the observer as UNEXPECTED_ERROR.
func (p *PageProcessor) ProcessPage(ctx context.Context, u *url.URL) {
	p.process(ctx, u)
}

// process reports whether the page reached an outcome. It returns false only
// when ctx ended first, in which case nothing was reported.
func (p *PageProcessor) process(ctx context.Context, u *url.URL) (finished bool) {
	defer func() {
		if r := recover(); r != nil {
			p.reportUnexpected(ctx, u, fmt.Errorf("panic while processing page: %v", r))
			finished = true
		}
	}()

	err := p.processPage(ctx, u)
	switch {
	case err == nil:
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		slog.Warn("Task interrupted", "url", u.String(), "error", err)
		return false
	default:
		p.reportUnexpected(ctx, u, err)
	}
	return true
}

func (p *PageProcessor) processPage(ctx context.Context, u *url.URL) error {
	slog.Debug("Processing page", "url", u.String())

	outcome, err := p.fetch(ctx, u)
	if err != nil {
		return err
	}
	if !outcome.OK() {
		slog.Debug("Page fetch did not succeed", "url", u.String(), "status", outcome.Status.String())
		return p.observer.OnCrawlFailed(ctx, u, outcome.Status.String(), nil)
	}

	links, err := p.extractor.Extract(outcome.Content, u)
	if err != nil {
		return fmt.Errorf("failed to extract links from %s: %w", u, err)
	}

	enqueued, err := p.enqueueNew(ctx, links)
	p.metrics.IncLinksEnqueued(enqueued)
	if err != nil {
		return err
	}

	slog.Debug("Page processed", "url", u.String(), "links", len(links), "enqueued", enqueued)
	return p.observer.OnPageCrawled(ctx, u, links)
}

// fetch holds a permit for exactly the duration of the fetch call.
func (p *PageProcessor) fetch(ctx context.Context, u *url.URL) (entity.FetchOutcome, error) {
	if err := p.permits.Acquire(ctx, 1); err != nil {
		return entity.FetchOutcome{}, fmt.Errorf("waiting for fetch permit: %w", err)
	}
	defer p.permits.Release(1)

	start := time.Now()
	p.metrics.FetchStarted()
	defer func() { p.metrics.FetchFinished(time.Since(start)) }()

	outcome, err := p.fetcher.Fetch(ctx, u)
	if err != nil {
		return entity.FetchOutcome{}, fmt.Errorf("failed to fetch %s: %w", u, err)
	}
	return outcome, nil
}

// enqueueNew pushes the normalized, in-scope, unvisited links. The visited
// check and the later claim are separate steps, so two pages may enqueue the
// same URL; the second dequeue loses the claim and is dropped.
func (p *PageProcessor) enqueueNew(ctx context.Context, links []*url.URL) (int, error) {
	enqueued := 0
	for _, link := range links {
		n := urlnorm.Normalize(link)
		if !p.scope.InScope(n) {
			continue
		}
		visited, err := p.visited.IsVisited(ctx, n)
		if err != nil {
			return enqueued, fmt.Errorf("failed to check visited state of %s: %w", n, err)
		}
		if visited {
			continue
		}
		if err := p.frontier.Enqueue(ctx, n); err != nil {
			return enqueued, fmt.Errorf("failed to enqueue %s: %w", n, err)
		}
		enqueued++
	}
	return enqueued, nil
}

func (p *PageProcessor) reportUnexpected(ctx context.Context, u *url.URL, cause error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Observer panicked while reporting failure", "url", u.String(), "panic", r)
		}
	}()

	slog.Error("Unexpected error processing page", "url", u.String(), "error", cause)
	if err := p.observer.OnCrawlFailed(ctx, u, entity.ReasonUnexpectedError, cause); err != nil {
		slog.Error("Failed to report crawl failure", "url", u.String(), "error", err)
	}
}
