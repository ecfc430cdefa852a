package proxy

import "fmt"

// The completion service failure taxonomy. Each error maps to a distinct
// outward error code, and none of them are retried inside the client:
// one attempt, one outcome. Retry policy belongs to the caller.

// AuthError means the bearer credential was missing or rejected (401/403).
// Not retryable.
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("completion service rejected credentials (HTTP %d)", e.Status)
}

// ThrottledError means the service signalled rate-limiting or
// backpressure (429). Retryable by the caller at a higher layer.
type ThrottledError struct {
	Status int
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("completion service throttled the request (HTTP %d)", e.Status)
}

// TransientError covers network failures, timeouts, and 5xx responses.
type TransientError struct {
	Status int // 0 when the failure happened before a response arrived
	Err    error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transient completion service failure: %v", e.Err)
	}
	return fmt.Sprintf("transient completion service failure (HTTP %d)", e.Status)
}

func (e *TransientError) Unwrap() error { return e.Err }

// UpstreamError covers every other non-2xx response, carrying the status
// code and a snippet of the body for diagnostics.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("completion service returned HTTP %d: %s", e.Status, e.Body)
}
