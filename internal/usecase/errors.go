package usecase

import "errors"

var (
	ErrMissingHost        = errors.New("start URL must be absolute with a host")
	ErrInvalidConcurrency = errors.New("max concurrent requests must be positive")
	ErrCrawlInProgress    = errors.New("a crawl for this URL is already running")
	ErrUnknownCrawl       = errors.New("crawl not found")
	ErrResultsDisabled    = errors.New("no result store configured")
	ErrShuttingDown       = errors.New("crawl manager is shutting down")
)
