package observer

import (
	"context"
	"errors"
	"net/url"

	"github.com/user/site-crawler/internal/repository"
)

// Multi forwards every event to each observer in order. All observers see
// the event even if an earlier one fails; the errors are joined.
type Multi []repository.CrawlObserver

func (m Multi) OnPageCrawled(ctx context.Context, u *url.URL, links []*url.URL) error {
	var errs []error
	for _, o := range m {
		if err := o.OnPageCrawled(ctx, u, links); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) OnCrawlFailed(ctx context.Context, u *url.URL, reason string, cause error) error {
	var errs []error
	for _, o := range m {
		if err := o.OnCrawlFailed(ctx, u, reason, cause); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
