package postgres

import (
	"context"

	"github.com/user/site-crawler/internal/entity"
)

// FailedURLRepoImpl records URLs that could not be crawled.
type FailedURLRepoImpl struct {
	db dbtx
}

// NewFailedURLRepo creates a new instance of FailedURLRepoImpl.
func NewFailedURLRepo(db dbtx) *FailedURLRepoImpl {
	return &FailedURLRepoImpl{db: db}
}

// SaveOrUpdate creates or updates a record for a failed URL.
// It increments attempt_count on conflict.
func (r *FailedURLRepoImpl) SaveOrUpdate(ctx context.Context, failedURL *entity.FailedURL) error {
	query := `
		INSERT INTO failed_urls (url, failure_reason, error_message, last_attempt_timestamp, attempt_count)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (url) DO UPDATE SET
			failure_reason = EXCLUDED.failure_reason,
			error_message = EXCLUDED.error_message,
			last_attempt_timestamp = EXCLUDED.last_attempt_timestamp,
			attempt_count = failed_urls.attempt_count + 1;
	`
	_, err := r.db.Exec(ctx, query,
		failedURL.URL,
		failedURL.FailureReason,
		failedURL.ErrorMessage,
		failedURL.LastAttemptTimestamp,
	)
	return err
}

func (r *FailedURLRepoImpl) FindByURL(ctx context.Context, url string) (*entity.FailedURL, error) {
	query := `
		SELECT id, url, failure_reason, error_message, last_attempt_timestamp
		FROM failed_urls
		WHERE url = $1;
	`
	var fu entity.FailedURL
	err := r.db.QueryRow(ctx, query, url).Scan(
		&fu.ID,
		&fu.URL,
		&fu.FailureReason,
		&fu.ErrorMessage,
		&fu.LastAttemptTimestamp,
	)
	if err != nil {
		return nil, err
	}
	return &fu, nil
}

// Delete removes a failed URL record, typically after a successful crawl.
func (r *FailedURLRepoImpl) Delete(ctx context.Context, url string) error {
	query := `DELETE FROM failed_urls WHERE url = $1;`
	_, err := r.db.Exec(ctx, query, url)
	return err
}
