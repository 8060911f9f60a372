package storage

import "errors"

// Storage errors for the last-fetch cache.
var (
	// ErrNotFound is returned when nothing has been stored for a pool yet.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
