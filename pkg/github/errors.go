package github

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrBackoffExceeded is returned when cumulative rate limit waits
	// exceed the configured budget.
	ErrBackoffExceeded = errors.New("rate limit backoff budget exceeded")

	// ErrContextCancelled is returned when the context is cancelled while
	// waiting between attempts.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrKind classifies a terminal request failure.
type ErrKind string

const (
	// KindNotFound means the user has no repository collection (HTTP 404).
	// Never retried.
	KindNotFound ErrKind = "not_found"

	// KindUnauthorized means the credential was rejected (HTTP 401, or a
	// 403 that is not rate limiting). Never retried.
	KindUnauthorized ErrKind = "unauthorized"

	// KindRateLimited means backoff waits exceeded the configured budget.
	KindRateLimited ErrKind = "rate_limited"

	// KindTransient means network failures or 5xx responses persisted past
	// the retry cap, or the response was otherwise unusable.
	KindTransient ErrKind = "transient"
)

// APIError is a terminal GitHub API failure with its classification.
type APIError struct {
	Kind       ErrKind
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("github %s error (status %d): %s: %v",
			e.Kind, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("github %s error (status %d): %s",
		e.Kind, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure classification from an error chain.
// Errors that are not APIErrors report as transient.
func KindOf(err error) ErrKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindTransient
}
