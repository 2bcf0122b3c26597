package repository

import "errors"

var (
	// ErrFrontierEmpty is returned by Frontier.Dequeue when nothing is pending.
	ErrFrontierEmpty = errors.New("frontier is empty")
	// ErrNotFound is returned by lookups that match no record.
	ErrNotFound = errors.New("record not found")
)
