package observer

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/user/site-crawler/internal/entity"
	"github.com/user/site-crawler/internal/repository"
)

// RecordingObserver persists page outcomes to a CrawlResultRepository.
type RecordingObserver struct {
	repo repository.CrawlResultRepository
	now  func() time.Time
}

func NewRecordingObserver(repo repository.CrawlResultRepository) *RecordingObserver {
	return &RecordingObserver{repo: repo, now: time.Now}
}

func (o *RecordingObserver) OnPageCrawled(ctx context.Context, u *url.URL, links []*url.URL) error {
	page := &entity.CrawledPage{
		URL:       u.String(),
		Links:     make([]string, 0, len(links)),
		CrawledAt: o.now().UTC(),
	}
	for _, l := range links {
		page.Links = append(page.Links, l.String())
	}
	if err := o.repo.SavePage(ctx, page); err != nil {
		return fmt.Errorf("failed to save crawled page %s: %w", u, err)
	}
	return nil
}

func (o *RecordingObserver) OnCrawlFailed(ctx context.Context, u *url.URL, reason string, cause error) error {
	failed := &entity.FailedURL{
		URL:                  u.String(),
		FailureReason:        reason,
		LastAttemptTimestamp: o.now().UTC(),
	}
	if cause != nil {
		failed.ErrorMessage = cause.Error()
	}
	if err := o.repo.SaveFailure(ctx, failed); err != nil {
		return fmt.Errorf("failed to save failure for %s: %w", u, err)
	}
	return nil
}
