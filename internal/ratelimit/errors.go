package ratelimit

import "errors"

var (
	// ErrRateLimited is returned when a caller exceeds the window budget
	// for an operation.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrUnavailable is returned when the counter store cannot be reached.
	// Callers must treat this as a failure, not as permission to bypass
	// the limit.
	ErrUnavailable = errors.New("rate limit store unavailable")
)
