package repository

import (
	"context"

	"github.com/user/site-crawler/internal/entity"
)

// CrawlResultRepository defines storage for page outcomes.
type CrawlResultRepository interface {
	// SavePage stores a crawled page. If the URL already exists, it is updated.
	SavePage(ctx context.Context, page *entity.CrawledPage) error
	// SaveFailure creates or updates the failure record for a URL.
	SaveFailure(ctx context.Context, failed *entity.FailedURL) error
	// FindByURL returns the persisted status of a URL, or ErrNotFound.
	FindByURL(ctx context.Context, url string) (*entity.PageStatus, error)
	Ping(ctx context.Context) error
	Close() error
}
