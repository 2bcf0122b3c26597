package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/user/site-crawler/internal/entity"
	"github.com/user/site-crawler/internal/repository"
)

// ResultRepoImpl stores crawl results in a single SQLite file. Timestamps are
// kept as Unix milliseconds.
type ResultRepoImpl struct {
	db *sql.DB
}

var _ repository.CrawlResultRepository = (*ResultRepoImpl)(nil)

// Open opens or creates the database at path and creates the tables.
func Open(path string) (*ResultRepoImpl, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	repo := &ResultRepoImpl{db: db}
	if err := repo.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return repo, nil
}

func (r *ResultRepoImpl) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS crawled_pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		links TEXT NOT NULL,
		link_count INTEGER NOT NULL,
		crawled_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS failed_urls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		failure_reason TEXT NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		last_attempt_timestamp INTEGER NOT NULL,
		attempt_count INTEGER NOT NULL DEFAULT 1
	);
	`
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// SavePage upserts the page and clears any earlier failure for the URL.
func (r *ResultRepoImpl) SavePage(ctx context.Context, page *entity.CrawledPage) error {
	links := page.Links
	if links == nil {
		links = []string{}
	}
	linksJSON, err := json.Marshal(links)
	if err != nil {
		return fmt.Errorf("failed to serialize links: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO crawled_pages (url, links, link_count, crawled_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		links = excluded.links,
		link_count = excluded.link_count,
		crawled_at = excluded.crawled_at
	`
	if _, err := tx.ExecContext(ctx, query, page.URL, string(linksJSON), len(links), page.CrawledAt.UnixMilli()); err != nil {
		return fmt.Errorf("failed to save crawled page: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM failed_urls WHERE url = ?`, page.URL); err != nil {
		return fmt.Errorf("failed to clear failure record: %w", err)
	}
	return tx.Commit()
}

func (r *ResultRepoImpl) SaveFailure(ctx context.Context, failed *entity.FailedURL) error {
	query := `
	INSERT INTO failed_urls (url, failure_reason, error_message, last_attempt_timestamp, attempt_count)
	VALUES (?, ?, ?, ?, 1)
	ON CONFLICT(url) DO UPDATE SET
		failure_reason = excluded.failure_reason,
		error_message = excluded.error_message,
		last_attempt_timestamp = excluded.last_attempt_timestamp,
		attempt_count = failed_urls.attempt_count + 1
	`
	_, err := r.db.ExecContext(ctx, query,
		failed.URL,
		failed.FailureReason,
		failed.ErrorMessage,
		failed.LastAttemptTimestamp.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save failed url: %w", err)
	}
	return nil
}

// FindByURL prefers a successful crawl over a recorded failure.
func (r *ResultRepoImpl) FindByURL(ctx context.Context, url string) (*entity.PageStatus, error) {
	var rawLinks string
	var linkCount int
	var crawledAt int64
	err := r.db.QueryRowContext(ctx,
		`SELECT links, link_count, crawled_at FROM crawled_pages WHERE url = ?`, url,
	).Scan(&rawLinks, &linkCount, &crawledAt)
	if err == nil {
		var links []string
		if err := json.Unmarshal([]byte(rawLinks), &links); err != nil {
			return nil, fmt.Errorf("failed to decode links: %w", err)
		}
		ts := time.UnixMilli(crawledAt).UTC()
		return &entity.PageStatus{
			URL:                url,
			CurrentStatus:      entity.PageCrawled,
			LinkCount:          linkCount,
			Links:              links,
			LastCrawlTimestamp: &ts,
		}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query crawled page: %w", err)
	}

	var reason string
	var attemptedAt int64
	err = r.db.QueryRowContext(ctx,
		`SELECT failure_reason, last_attempt_timestamp FROM failed_urls WHERE url = ?`, url,
	).Scan(&reason, &attemptedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query failed url: %w", err)
	}
	ts := time.UnixMilli(attemptedAt).UTC()
	return &entity.PageStatus{
		URL:                url,
		CurrentStatus:      entity.PageFailed,
		LastCrawlTimestamp: &ts,
		FailureReason:      reason,
	}, nil
}

func (r *ResultRepoImpl) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *ResultRepoImpl) Close() error {
	return r.db.Close()
}
