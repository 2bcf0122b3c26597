package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/site-crawler/internal/entity"
	"github.com/user/site-crawler/internal/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS crawled_pages (
	id         BIGSERIAL PRIMARY KEY,
	url        TEXT NOT NULL UNIQUE,
	links      JSONB NOT NULL DEFAULT '[]',
	link_count INTEGER NOT NULL DEFAULT 0,
	crawled_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS failed_urls (
	id                     BIGSERIAL PRIMARY KEY,
	url                    TEXT NOT NULL UNIQUE,
	failure_reason         TEXT NOT NULL,
	error_message          TEXT NOT NULL DEFAULT '',
	last_attempt_timestamp TIMESTAMPTZ NOT NULL,
	attempt_count          INTEGER NOT NULL DEFAULT 1
);
`

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ResultRepoImpl implements repository.CrawlResultRepository on PostgreSQL.
type ResultRepoImpl struct {
	db *pgxpool.Pool
	*CrawledPageRepoImpl
	*FailedURLRepoImpl
}

var _ repository.CrawlResultRepository = (*ResultRepoImpl)(nil)

// NewResultRepo creates a result store over an existing pool.
func NewResultRepo(db *pgxpool.Pool) *ResultRepoImpl {
	return &ResultRepoImpl{
		db:                  db,
		CrawledPageRepoImpl: NewCrawledPageRepo(db),
		FailedURLRepoImpl:   NewFailedURLRepo(db),
	}
}

// Open connects to connString and makes sure the tables exist.
func Open(ctx context.Context, connString string) (*ResultRepoImpl, error) {
	db, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	repo := NewResultRepo(db)
	if err := repo.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// EnsureSchema creates the result tables if they are missing.
func (r *ResultRepoImpl) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, schema)
	return err
}

// SavePage stores the page and clears any earlier failure for the same URL
// in one transaction.
func (r *ResultRepoImpl) SavePage(ctx context.Context, page *entity.CrawledPage) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := NewCrawledPageRepo(tx).Save(ctx, page); err != nil {
		return fmt.Errorf("failed to save crawled page: %w", err)
	}
	if err := NewFailedURLRepo(tx).Delete(ctx, page.URL); err != nil {
		return fmt.Errorf("failed to clear failure record: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *ResultRepoImpl) SaveFailure(ctx context.Context, failed *entity.FailedURL) error {
	return r.FailedURLRepoImpl.SaveOrUpdate(ctx, failed)
}

// FindByURL prefers a successful crawl over a recorded failure.
func (r *ResultRepoImpl) FindByURL(ctx context.Context, url string) (*entity.PageStatus, error) {
	page, err := r.CrawledPageRepoImpl.FindByURL(ctx, url)
	if err == nil {
		return &entity.PageStatus{
			URL:                page.URL,
			CurrentStatus:      entity.PageCrawled,
			LinkCount:          len(page.Links),
			Links:              page.Links,
			LastCrawlTimestamp: &page.CrawledAt,
		}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	failed, err := r.FailedURLRepoImpl.FindByURL(ctx, url)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entity.PageStatus{
		URL:                failed.URL,
		CurrentStatus:      entity.PageFailed,
		LastCrawlTimestamp: &failed.LastAttemptTimestamp,
		FailureReason:      failed.FailureReason,
	}, nil
}

func (r *ResultRepoImpl) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *ResultRepoImpl) Close() error {
	r.db.Close()
	return nil
}
