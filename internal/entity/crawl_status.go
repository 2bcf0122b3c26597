package entity

import "time"

// Page states returned by the status lookup.
const (
	PageCrawled  = "crawled"
	PageFailed   = "failed"
	PageNotFound = "not_found"
)

// PageStatus is the persisted outcome for a single URL.
type PageStatus struct {
	URL                string
	CurrentStatus      string // "crawled", "failed", "not_found"
	LinkCount          int
	Links              []string
	LastCrawlTimestamp *time.Time
	FailureReason      string
}

// Run states for a submitted crawl.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// CrawlRun tracks one crawl started through the API.
type CrawlRun struct {
	ID          string
	StartURL    string
	Status      string
	PagesOK     int64
	PagesFailed int64
	StartedAt   time.Time
	FinishedAt  *time.Time
	Error       string
}
