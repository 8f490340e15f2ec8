package github

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound indicates the requested path does not exist on the remote
// service (HTTP 404).
var ErrNotFound = errors.New("not found")

// RateLimitError indicates the service refused the request because the
// per-IP or per-token quota is exhausted. The client never waits on its own;
// callers decide whether Wait is acceptable.
type RateLimitError struct {
	// Reset is when the quota replenishes, if the service said so.
	Reset time.Time
}

func (e *RateLimitError) Error() string {
	if e.Reset.IsZero() {
		return "rate limited"
	}
	return fmt.Sprintf("rate limited until %s", e.Reset.Format(time.RFC1123))
}

// Wait returns how long until the quota resets, or zero when unknown.
func (e *RateLimitError) Wait() time.Duration {
	if e.Reset.IsZero() {
		return 0
	}
	d := time.Until(e.Reset)
	if d < 0 {
		return 0
	}
	return d
}

// NetworkError wraps transport-level failures (connection refused, timeout)
// so callers can tell them apart from NotFound and rate limiting.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
