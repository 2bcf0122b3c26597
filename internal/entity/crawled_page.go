package entity

import "time"

// CrawledPage mirrors the `crawled_pages` table.
type CrawledPage struct {
	ID        int64
	URL       string
	Links     []string
	CrawledAt time.Time
}
