package cache

import "errors"

var (
	// ErrNotFound means the identity key matched no learner.
	ErrNotFound = errors.New("learner not found")
	// ErrUnavailable means the analytical store is not loaded; callers
	// should distinguish this from genuinely empty results.
	ErrUnavailable = errors.New("analytical store unavailable")
	// ErrUnsafeQuery means a raw query was rejected by the guard.
	ErrUnsafeQuery = errors.New("query rejected by safety guard")
)
