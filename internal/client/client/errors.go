package client

import (
	"context"
	"errors"
)

// Transport errors. Remote implementations wrap one of these so the
// coordinator can classify failures without looking at status codes.
var (
	ErrNotFound     = errors.New("remote not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("remote unavailable")
	ErrRateLimited  = errors.New("rate limited")
)

// IsRetryable reports whether err is a transient transport failure worth
// retrying with backoff: network trouble, timeouts of a single request, or
// rate limiting. Cancellation of the caller's context is not retryable.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, context.DeadlineExceeded)
}
