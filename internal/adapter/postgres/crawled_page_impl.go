package postgres

import (
	"context"
	"encoding/json"

	"github.com/user/site-crawler/internal/entity"
)

// CrawledPageRepoImpl stores successfully crawled pages in PostgreSQL.
type CrawledPageRepoImpl struct {
	db dbtx
}

// NewCrawledPageRepo creates a new instance of CrawledPageRepoImpl.
func NewCrawledPageRepo(db dbtx) *CrawledPageRepoImpl {
	return &CrawledPageRepoImpl{db: db}
}

// Save stores or updates the crawled page for a URL.
func (r *CrawledPageRepoImpl) Save(ctx context.Context, page *entity.CrawledPage) error {
	links := page.Links
	if links == nil {
		links = []string{}
	}
	linksJSON, err := json.Marshal(links)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO crawled_pages (url, links, link_count, crawled_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (url) DO UPDATE SET
			links = EXCLUDED.links,
			link_count = EXCLUDED.link_count,
			crawled_at = EXCLUDED.crawled_at;
	`
	_, err = r.db.Exec(ctx, query, page.URL, linksJSON, len(links), page.CrawledAt)
	return err
}

// FindByURL retrieves the crawled page for a URL.
func (r *CrawledPageRepoImpl) FindByURL(ctx context.Context, url string) (*entity.CrawledPage, error) {
	query := `
		SELECT id, url, links, crawled_at
		FROM crawled_pages
		WHERE url = $1;
	`
	var page entity.CrawledPage
	var linksJSON []byte
	err := r.db.QueryRow(ctx, query, url).Scan(&page.ID, &page.URL, &linksJSON, &page.CrawledAt)
	if err != nil {
		return nil, err // pgx.ErrNoRows will be returned if not found
	}
	if err := json.Unmarshal(linksJSON, &page.Links); err != nil {
		return nil, err
	}
	return &page, nil
}
