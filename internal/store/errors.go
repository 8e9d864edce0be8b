package store

import "errors"

// Common store errors.
var (
	// ErrJobNotFound is returned when a requested job does not exist in
	// the registry. Callers must treat this as a distinct condition,
	// not a generic failure.
	ErrJobNotFound = errors.New("job not found")
)
