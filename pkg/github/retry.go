package github

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/devradar/devradar/pkg/ratelimit"
)

// Prometheus metrics for governor decisions.
var (
	apiRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "devradar_api_retries_total",
		Help: "Total retry attempts after transient failures",
	})

	apiRetryBackoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "devradar_api_retry_backoff_seconds",
		Help:    "Backoff duration between retry attempts",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	})

	apiRetryExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "devradar_api_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted",
	})

	rateLimitWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "devradar_rate_limit_waits_total",
		Help: "Total number of rate limit backoff waits",
	})

	rateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "devradar_rate_limit_wait_seconds",
		Help:    "Duration of rate limit backoff waits",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
	})
)

// RetryConfig holds the configuration for the request governor.
// The specific values are tuning knobs, not invariants; the defaults are
// conservative enough for unauthenticated use.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts for transient failures
	// (network errors and 5xx), including the initial request.
	MaxAttempts int

	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential retry delay.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64

	// MaxResetWait clamps a single rate limit sleep computed from the
	// reset header.
	MaxResetWait time.Duration

	// FallbackWait is used for a rate limited response that carries no
	// usable reset or retry-after header.
	FallbackWait time.Duration

	// MaxTotalBackoff bounds the cumulative rate limit wait per request.
	// Exceeding it fails the request with KindRateLimited.
	MaxTotalBackoff time.Duration
}

// DefaultRetryConfig returns the default governor configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		MaxResetWait:      60 * time.Second,
		FallbackWait:      30 * time.Second,
		MaxTotalBackoff:   15 * time.Minute,
	}
}

func (rc RetryConfig) withDefaults() RetryConfig {
	def := DefaultRetryConfig()
	if rc.MaxAttempts <= 0 {
		rc.MaxAttempts = def.MaxAttempts
	}
	if rc.InitialBackoff <= 0 {
		rc.InitialBackoff = def.InitialBackoff
	}
	if rc.MaxBackoff <= 0 {
		rc.MaxBackoff = def.MaxBackoff
	}
	if rc.BackoffMultiplier <= 1 {
		rc.BackoffMultiplier = def.BackoffMultiplier
	}
	if rc.MaxResetWait <= 0 {
		rc.MaxResetWait = def.MaxResetWait
	}
	if rc.FallbackWait <= 0 {
		rc.FallbackWait = def.FallbackWait
	}
	if rc.MaxTotalBackoff <= 0 {
		rc.MaxTotalBackoff = def.MaxTotalBackoff
	}
	return rc
}

// pageResult is a successful page response.
type pageResult struct {
	body  []byte
	next  string
	state ratelimit.State
}

// getPage performs one governed GET request. Each attempt ends in one of
// four outcomes: success, a retry after exponential backoff (network/5xx),
// a rate limit backoff that does not consume retry attempts (403/429 with
// an exhausted window), or a terminal typed failure.
func (c *Client) getPage(ctx context.Context, url string) (*pageResult, error) {
	attempts := 0
	backoff := c.retry.InitialBackoff
	var totalBackoff time.Duration
	endpoint := endpointLabel(url)

	start := time.Now()
	defer func() {
		apiRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrContextCancelled, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, &APIError{Kind: KindTransient, Message: "create request", Err: err}
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("User-Agent", c.userAgent)

		resp, reqErr := c.httpClient.Do(req)
		if reqErr != nil {
			apiRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			c.logger.Warn().Err(reqErr).Str("url", url).Msg("HTTP request failed")
			if retryErr := c.waitRetry(ctx, &attempts, &backoff); retryErr != nil {
				return nil, &APIError{Kind: KindTransient, Message: "request failed", Err: retryErr}
			}
			continue
		}

		state := ratelimit.FromHeaders(resp.Header)
		observeRateLimit(state)
		status := resp.StatusCode
		apiRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", status)).Inc()

		switch {
		case status >= 200 && status < 300:
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				c.logger.Warn().Err(readErr).Str("url", url).Msg("Reading response body failed")
				if retryErr := c.waitRetry(ctx, &attempts, &backoff); retryErr != nil {
					return nil, &APIError{Kind: KindTransient, StatusCode: status, Message: "read body", Err: retryErr}
				}
				continue
			}
			return &pageResult{
				body:  body,
				next:  nextLink(resp.Header.Get("Link")),
				state: state,
			}, nil

		case status == http.StatusUnauthorized:
			resp.Body.Close()
			apiErrorsTotal.WithLabelValues(string(KindUnauthorized)).Inc()
			return nil, &APIError{Kind: KindUnauthorized, StatusCode: status, Message: "credential rejected"}

		case status == http.StatusNotFound:
			resp.Body.Close()
			apiErrorsTotal.WithLabelValues(string(KindNotFound)).Inc()
			return nil, &APIError{Kind: KindNotFound, StatusCode: status, Message: "no such user or collection"}

		case status == http.StatusTooManyRequests,
			status == http.StatusForbidden && isRateLimited(state):
			resp.Body.Close()
			wait := c.backoffWait(state)
			totalBackoff += wait
			if totalBackoff > c.retry.MaxTotalBackoff {
				apiErrorsTotal.WithLabelValues(string(KindRateLimited)).Inc()
				return nil, &APIError{
					Kind:       KindRateLimited,
					StatusCode: status,
					Message:    fmt.Sprintf("cumulative wait %s exceeds budget %s", totalBackoff, c.retry.MaxTotalBackoff),
					Err:        ErrBackoffExceeded,
				}
			}
			rateLimitWaitsTotal.Inc()
			rateLimitWaitSeconds.Observe(wait.Seconds())
			c.logger.Warn().
				Int("status", status).
				Dur("backoff", wait).
				Time("reset_at", state.ResetAt).
				Msg("Rate limited, waiting for window reset")
			if err := sleepCtx(ctx, wait); err != nil {
				return nil, err
			}
			// Rate limit waits do not consume retry attempts.
			continue

		case status == http.StatusForbidden:
			resp.Body.Close()
			apiErrorsTotal.WithLabelValues(string(KindUnauthorized)).Inc()
			return nil, &APIError{Kind: KindUnauthorized, StatusCode: status, Message: "access forbidden"}

		case status >= 400 && status < 500:
			resp.Body.Close()
			apiErrorsTotal.WithLabelValues(string(KindTransient)).Inc()
			return nil, &APIError{Kind: KindTransient, StatusCode: status, Message: "unexpected client error"}

		default: // 5xx
			resp.Body.Close()
			c.logger.Warn().Int("status", status).Str("url", url).Msg("Server error")
			if retryErr := c.waitRetry(ctx, &attempts, &backoff); retryErr != nil {
				apiErrorsTotal.WithLabelValues(string(KindTransient)).Inc()
				return nil, &APIError{Kind: KindTransient, StatusCode: status, Message: "server error", Err: retryErr}
			}
			continue
		}
	}
}

// waitRetry consumes one retry attempt and sleeps the jittered exponential
// backoff. Returns ErrRetryExhausted once the attempt cap is reached.
func (c *Client) waitRetry(ctx context.Context, attempts *int, backoff *time.Duration) error {
	*attempts++
	if *attempts >= c.retry.MaxAttempts {
		apiRetryExhaustedTotal.Inc()
		return fmt.Errorf("%w after %d attempts", ErrRetryExhausted, *attempts)
	}

	// Jitter (±20%) avoids synchronized retry storms.
	jittered := time.Duration(float64(*backoff) * (0.8 + rand.Float64()*0.4))
	apiRetriesTotal.Inc()
	apiRetryBackoffSeconds.Observe(jittered.Seconds())

	c.logger.Debug().
		Int("attempt", *attempts).
		Dur("backoff", jittered).
		Msg("Retrying request after backoff")

	if err := sleepCtx(ctx, jittered); err != nil {
		return err
	}

	*backoff = time.Duration(float64(*backoff) * c.retry.BackoffMultiplier)
	if *backoff > c.retry.MaxBackoff {
		*backoff = c.retry.MaxBackoff
	}
	return nil
}

// backoffWait computes the sleep for one rate limited response: the server
// supplied retry-after when present, otherwise sleep until the window
// resets, otherwise a fixed fallback. Clamped to MaxResetWait.
func (c *Client) backoffWait(state ratelimit.State) time.Duration {
	wait := state.RetryAfter
	if wait <= 0 {
		wait = state.WaitUntilReset(time.Now())
	}
	if wait <= 0 {
		wait = c.retry.FallbackWait
	}
	if wait > c.retry.MaxResetWait {
		wait = c.retry.MaxResetWait
	}
	return wait
}

// isRateLimited distinguishes a throttling 403 from a permission 403.
func isRateLimited(state ratelimit.State) bool {
	return state.Exhausted() || state.RetryAfter > 0
}

// sleepCtx waits for the given duration with context cancellation support.
func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
	case <-time.After(d):
		return nil
	}
}
