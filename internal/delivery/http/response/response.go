package response

import (
	"time"

	"github.com/user/site-crawler/internal/entity"
)

type SubmitCrawlResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	CrawlID string `json:"crawl_id"`
}

// CrawlRunResponse is a DTO for a submitted crawl, mirroring entity.CrawlRun.
type CrawlRunResponse struct {
	ID          string     `json:"id"`
	StartURL    string     `json:"start_url"`
	Status      string     `json:"status"` // "running", "completed", "failed"
	PagesOK     int64      `json:"pages_ok"`
	PagesFailed int64      `json:"pages_failed"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

func NewCrawlRunResponse(run *entity.CrawlRun) CrawlRunResponse {
	return CrawlRunResponse{
		ID:          run.ID,
		StartURL:    run.StartURL,
		Status:      run.Status,
		PagesOK:     run.PagesOK,
		PagesFailed: run.PagesFailed,
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
		Error:       run.Error,
	}
}

// PageStatusResponse is a DTO for page status, mirroring entity.PageStatus.
type PageStatusResponse struct {
	URL                string     `json:"url"`
	CurrentStatus      string     `json:"current_status"` // "crawled", "failed"
	LinkCount          int        `json:"link_count"`
	Links              []string   `json:"links,omitempty"`
	LastCrawlTimestamp *time.Time `json:"last_crawl_timestamp,omitempty"`
	FailureReason      string     `json:"failure_reason,omitempty"`
}

type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}
