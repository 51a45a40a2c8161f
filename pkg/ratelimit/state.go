// Package ratelimit interprets GitHub rate limit response headers.
// It parses the X-RateLimit-Remaining and X-RateLimit-Reset headers into a
// State value that the request governor consumes immediately after each
// response. State is never stored between requests; every decision is based
// on the headers of the most recent response.
package ratelimit

import (
	"net/http"
	"strconv"
	"time"
)

// Headers carrying rate limit state on every GitHub API response.
const (
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// State represents the rate limit window observed on a single response.
type State struct {
	// Remaining is the number of requests left in the current window.
	// Extracted from the X-RateLimit-Remaining header.
	Remaining int

	// ResetAt is when the current window resets. Calculated from the
	// X-RateLimit-Reset header (unix epoch seconds).
	ResetAt time.Time

	// RetryAfter is the server-suggested wait from a Retry-After header,
	// zero when the header is absent. Sent on secondary rate limits.
	RetryAfter time.Duration

	// HasRemaining and HasReset record which headers were actually present,
	// so absent headers are distinguishable from zero values.
	HasRemaining bool
	HasReset     bool
}

// FromHeaders parses rate limit state out of a response header set.
// Missing or malformed headers leave the corresponding fields unset rather
// than failing: not every response carries them.
func FromHeaders(headers http.Header) State {
	var s State

	if v := headers.Get(HeaderRemaining); v != "" {
		if remaining, err := strconv.Atoi(v); err == nil {
			s.Remaining = remaining
			s.HasRemaining = true
		}
	}

	if v := headers.Get(HeaderReset); v != "" {
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil {
			s.ResetAt = time.Unix(epoch, 0)
			s.HasReset = true
		}
	}

	if v := headers.Get(HeaderRetryAfter); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds >= 0 {
			s.RetryAfter = time.Duration(seconds) * time.Second
		}
	}

	return s
}

// Exhausted reports whether the window has no requests left.
// A 403 response with an exhausted window is a primary rate limit, as
// opposed to a plain permission error.
func (s State) Exhausted() bool {
	return s.HasRemaining && s.Remaining <= 0
}

// WaitUntilReset returns how long to sleep before the window resets,
// measured from now. A small skew is added because the reset header has
// one-second resolution. Returns 0 if the reset time has already passed.
func (s State) WaitUntilReset(now time.Time) time.Duration {
	if !s.HasReset {
		return 0
	}
	wait := s.ResetAt.Sub(now)
	if wait < 0 {
		return 0
	}
	return wait + time.Second
}
