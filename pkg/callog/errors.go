package callog

import "errors"

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a call record does not exist.
	ErrNotFound = errors.New("call record not found")

	// ErrConflict is returned when a call record with the given ID already exists.
	ErrConflict = errors.New("call record already exists")
)
