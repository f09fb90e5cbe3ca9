package api

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusErrorLimited is ESI's "error limited" status, sent once the error budget is spent.
const StatusErrorLimited = 420

// APIError represents a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
	Header     http.Header
}

func (e *APIError) Error() string {
	return fmt.Sprintf("esi api error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.IsRateLimited()
}

// IsRateLimited returns true for throttling responses.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode == StatusErrorLimited
}

// TransientError is returned once a retryable failure (network error, timeout,
// 5xx, throttling) persists through every retry. Callers may try again later.
type TransientError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("max retries exceeded (%d attempts) for %s: %v", e.Attempts, e.URL, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// RateLimited reports whether the last failure was a throttling response.
func (e *TransientError) RateLimited() bool {
	var apiErr *APIError
	return errors.As(e.Err, &apiErr) && apiErr.IsRateLimited()
}

// ProtocolError reports a response whose shape does not match the contract,
// such as a missing X-Pages header or an undecodable body. It is not retryable.
type ProtocolError struct {
	URL    string
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error for %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("protocol error for %s: %s", e.URL, e.Reason)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}
