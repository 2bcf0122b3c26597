package entity

import "time"

// FailedURL mirrors the `failed_urls` table schema.
type FailedURL struct {
	ID                   int64
	URL                  string
	FailureReason        string
	ErrorMessage         string
	LastAttemptTimestamp time.Time
}
