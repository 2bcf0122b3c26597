package observer

import (
	"context"
	"log/slog"
	"net/url"
	"sort"
	"sync"
)

// ConsoleObserver logs every crawled page together with the links it has not
// reported before. The seen set belongs to the instance.
type ConsoleObserver struct {
	logger *slog.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewConsoleObserver returns a ConsoleObserver writing to logger, or to the
// default slog logger when logger is nil.
func NewConsoleObserver(logger *slog.Logger) *ConsoleObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleObserver{logger: logger, seen: make(map[string]struct{})}
}

func (o *ConsoleObserver) OnPageCrawled(ctx context.Context, u *url.URL, links []*url.URL) error {
	fresh := o.markSeen(links)

	if len(fresh) == 0 {
		o.logger.InfoContext(ctx, "Crawled page (all links already seen)",
			"url", u.String(),
			"total_links", len(links),
		)
		return nil
	}
	o.logger.InfoContext(ctx, "Crawled page",
		"url", u.String(),
		"total_links", len(links),
		"new_count", len(fresh),
		"new_links", fresh,
	)
	return nil
}

func (o *ConsoleObserver) OnCrawlFailed(ctx context.Context, u *url.URL, reason string, cause error) error {
	if cause != nil {
		o.logger.WarnContext(ctx, "Failed to crawl page", "url", u.String(), "reason", reason, "error", cause)
		return nil
	}
	o.logger.WarnContext(ctx, "Failed to crawl page", "url", u.String(), "reason", reason)
	return nil
}

// markSeen records links and returns the ones not seen before, sorted.
func (o *ConsoleObserver) markSeen(links []*url.URL) []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	var fresh []string
	for _, l := range links {
		key := l.String()
		if _, ok := o.seen[key]; ok {
			continue
		}
		o.seen[key] = struct{}{}
		fresh = append(fresh, key)
	}
	sort.Strings(fresh)
	return fresh
}
