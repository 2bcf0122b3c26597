package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"

	"github.com/user/site-crawler/internal/adapter/memory"
	"github.com/user/site-crawler/internal/entity"
	"github.com/user/site-crawler/internal/urlnorm"
)

func newProcessor(t *testing.T, site *fakeSite, obs *recordingObserver) (*PageProcessor, *memory.QueueRepoImpl, *memory.VisitedRepoImpl) {
	t.Helper()
	frontier := memory.NewQueueRepo()
	visited := memory.NewVisitedRepo()
	return &PageProcessor{
		fetcher:   site,
		extractor: site,
		observer:  obs,
		frontier:  frontier,
		visited:   visited,
		scope:     urlnorm.NewScope(startURL(t, root)),
		permits:   semaphore.NewWeighted(1),
	}, frontier, visited
}

func TestPageProcessorEnqueuesOnlyNewInScopeLinks(t *testing.T) {
	t.Parallel()

	site := newFakeSite(map[string]fakePage{root: {links: []string{
		"/fresh/",
		"/seen",
		"https://other.org/x",
		"/fresh#again",
	}}})
	obs := newRecordingObserver()
	p, frontier, visited := newProcessor(t, site, obs)

	_, err := visited.MarkVisited(context.Background(), startURL(t, "https://example.com/seen"))
	require.NoError(t, err)

	p.ProcessPage(context.Background(), startURL(t, root))

	// Duplicates within a page are tolerated; the claim on dequeue drops them.
	size, err := frontier.Size(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), size)
	first, err := frontier.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/fresh", first.String())

	// The observer sees every extracted link, not just the enqueued ones.
	assert.Len(t, obs.crawled[root], 4)
	assert.Empty(t, obs.failures(root))
}

func TestPageProcessorReportsFetchStatus(t *testing.T) {
	t.Parallel()

	for _, status := range []entity.FetchStatus{
		entity.FetchNotFound,
		entity.FetchClientError,
		entity.FetchServerError,
		entity.FetchError,
	} {
		site := newFakeSite(map[string]fakePage{root: {status: status, links: []string{"/a"}}})
		obs := newRecordingObserver()
		p, frontier, _ := newProcessor(t, site, obs)

		p.ProcessPage(context.Background(), startURL(t, root))

		failures := obs.failures(root)
		require.Len(t, failures, 1, status.String())
		assert.Equal(t, status.String(), failures[0].reason)
		assert.NoError(t, failures[0].cause)
		size, err := frontier.Size(context.Background())
		require.NoError(t, err)
		assert.Zero(t, size)
		assert.Empty(t, obs.crawledURLs())
	}
}

func TestPageProcessorReportsExtractionErrors(t *testing.T) {
	t.Parallel()

	site := newFakeSite(map[string]fakePage{root: {}})
	site.extractErr = errors.New("bad markup")
	obs := newRecordingObserver()
	p, _, _ := newProcessor(t, site, obs)

	p.ProcessPage(context.Background(), startURL(t, root))

	failures := obs.failures(root)
	require.Len(t, failures, 1)
	assert.Equal(t, entity.ReasonUnexpectedError, failures[0].reason)
	assert.ErrorContains(t, failures[0].cause, "bad markup")
}

func TestPageProcessorReportsObserverErrorsAsUnexpected(t *testing.T) {
	t.Parallel()

	site := newFakeSite(map[string]fakePage{root: {}})
	obs := newRecordingObserver()
	obs.crawledErr = errors.New("sink full")
	p, _, _ := newProcessor(t, site, obs)

	p.ProcessPage(context.Background(), startURL(t, root))

	failures := obs.failures(root)
	require.Len(t, failures, 1)
	assert.Equal(t, entity.ReasonUnexpectedError, failures[0].reason)
}

func TestPageProcessorRecoversFromObserverPanic(t *testing.T) {
	t.Parallel()

	site := newFakeSite(map[string]fakePage{root: {}})
	obs := newRecordingObserver()
	obs.panicOn = root
	p, _, _ := newProcessor(t, site, obs)

	assert.NotPanics(t, func() { p.ProcessPage(context.Background(), startURL(t, root)) })
	failures := obs.failures(root)
	require.Len(t, failures, 1)
	assert.ErrorContains(t, failures[0].cause, "observer exploded")
	assert.True(t, p.permits.TryAcquire(1), "permit must be released")
}

func TestPageProcessorInterruptedIsNotReported(t *testing.T) {
	t.Parallel()

	site := newFakeSite(map[string]fakePage{root: {}})
	obs := newRecordingObserver()
	p, _, _ := newProcessor(t, site, obs)
	require.True(t, p.permits.TryAcquire(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, p.process(ctx, startURL(t, root)), "interrupted page must stay unfinished")

	assert.Empty(t, obs.failures(root))
	assert.Zero(t, site.fetchCount(root))
}

func TestPageProcessorFinishesReportedPages(t *testing.T) {
	t.Parallel()

	site := newFakeSite(map[string]fakePage{
		root:                       {},
		"https://example.com/gone": {status: entity.FetchNotFound},
		"https://example.com/boom": {panics: true},
	})
	p, _, _ := newProcessor(t, site, newRecordingObserver())

	for _, raw := range []string{root, "https://example.com/gone", "https://example.com/boom"} {
		assert.True(t, p.process(context.Background(), startURL(t, raw)), raw)
	}
}
