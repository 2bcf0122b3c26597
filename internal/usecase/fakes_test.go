package usecase

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/user/site-crawler/internal/entity"
	"github.com/user/site-crawler/internal/repository"
)

type fakePage struct {
	status  entity.FetchStatus
	links   []string
	delay   time.Duration
	panics  bool
	blockOn <-chan struct{}
}

// fakeSite serves pages keyed by absolute URL. It implements both
// PageFetcher and LinkExtractor; page content is the page's own URL.
type fakeSite struct {
	mu          sync.Mutex
	pages       map[string]fakePage
	fetches     map[string]int
	inFlight    int
	maxInFlight int
	extractErr  error
}

func newFakeSite(pages map[string]fakePage) *fakeSite {
	return &fakeSite{pages: pages, fetches: make(map[string]int)}
}

func (s *fakeSite) Fetch(ctx context.Context, u *url.URL) (entity.FetchOutcome, error) {
	key := u.String()
	s.mu.Lock()
	s.fetches[key]++
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	page, ok := s.pages[key]
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if page.blockOn != nil {
		select {
		case <-page.blockOn:
		case <-ctx.Done():
			return entity.FetchOutcome{}, ctx.Err()
		}
	}
	if page.delay > 0 {
		select {
		case <-time.After(page.delay):
		case <-ctx.Done():
			return entity.FetchOutcome{}, ctx.Err()
		}
	}
	if !ok {
		return entity.Failure(entity.FetchNotFound), nil
	}
	if page.panics {
		panic("fetcher exploded")
	}
	if page.status != entity.FetchSuccess {
		return entity.Failure(page.status), nil
	}
	return entity.Success(key), nil
}

func (s *fakeSite) Extract(content string, base *url.URL) ([]*url.URL, error) {
	if s.extractErr != nil {
		return nil, s.extractErr
	}
	s.mu.Lock()
	page := s.pages[content]
	s.mu.Unlock()

	links := make([]*url.URL, 0, len(page.links))
	for _, raw := range page.links {
		ref, err := url.Parse(raw)
		if err != nil {
			return nil, err
		}
		links = append(links, base.ResolveReference(ref))
	}
	return links, nil
}

func (s *fakeSite) fetchCount(raw string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches[raw]
}

func (s *fakeSite) fetched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.fetches))
	for k := range s.fetches {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *fakeSite) peakInFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxInFlight
}

func (s *fakeSite) currentInFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

type failure struct {
	reason string
	cause  error
}

type recordingObserver struct {
	mu         sync.Mutex
	crawled    map[string][]string
	failed     map[string][]failure
	crawledErr error
	// rejectReason makes OnCrawlFailed return an error for that reason code.
	rejectReason string
	panicOn      string
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		crawled: make(map[string][]string),
		failed:  make(map[string][]failure),
	}
}

func (o *recordingObserver) OnPageCrawled(_ context.Context, u *url.URL, links []*url.URL) error {
	if o.panicOn == u.String() {
		panic("observer exploded")
	}
	out := make([]string, 0, len(links))
	for _, l := range links {
		out = append(out, l.String())
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.crawled[u.String()] = out
	return o.crawledErr
}

func (o *recordingObserver) OnCrawlFailed(_ context.Context, u *url.URL, reason string, cause error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed[u.String()] = append(o.failed[u.String()], failure{reason: reason, cause: cause})
	if reason == o.rejectReason {
		return errors.New("failure sink rejected " + reason)
	}
	return nil
}

func (o *recordingObserver) crawledURLs() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.crawled))
	for k := range o.crawled {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (o *recordingObserver) failures(raw string) []failure {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.failed[raw]
}

// flakyFrontier fails Dequeue once failAfter successful dequeues happened.
type flakyFrontier struct {
	repository.Frontier
	mu        sync.Mutex
	dequeues  int
	failAfter int
}

var errStoreDown = errors.New("store unreachable")

func (f *flakyFrontier) Dequeue(ctx context.Context) (*url.URL, error) {
	f.mu.Lock()
	f.dequeues++
	n := f.dequeues
	f.mu.Unlock()
	if n > f.failAfter {
		return nil, errStoreDown
	}
	return f.Frontier.Dequeue(ctx)
}

// flakyState wraps a CrawlState and swaps in a flakyFrontier.
type flakyState struct {
	repository.CrawlState
	frontier *flakyFrontier
}

func (s *flakyState) Frontier(crawlID string) repository.Frontier {
	if s.frontier.Frontier == nil {
		s.frontier.Frontier = s.CrawlState.Frontier(crawlID)
	}
	return s.frontier
}

// gatedState blocks Clear until release is closed, or fails it with clearErr.
type gatedState struct {
	repository.CrawlState
	entered  chan struct{}
	release  chan struct{}
	clearErr error
}

func (s *gatedState) Clear(ctx context.Context, crawlID string) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	close(s.entered)
	<-s.release
	return s.CrawlState.Clear(ctx, crawlID)
}
