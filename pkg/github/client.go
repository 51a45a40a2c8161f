// Package github provides the GitHub REST client used for repository
// retrieval: paginated fetching, rate limit backoff, and retry handling.
package github

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/devradar/devradar/pkg/ratelimit"
)

// DefaultBaseURL is the production GitHub REST API root.
const DefaultBaseURL = "https://api.github.com"

// Prometheus metrics for API request operations.
var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devradar_api_requests_total",
		Help: "Total GitHub API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "devradar_api_request_duration_seconds",
		Help:    "GitHub API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	apiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devradar_api_errors_total",
		Help: "Total terminal GitHub API errors by kind",
	}, []string{"kind"})

	rateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "devradar_rate_limit_remaining",
		Help: "Requests remaining in current GitHub rate limit window",
	})
)

// Client is the GitHub API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	retry      RetryConfig
	perPage    int
	maxPages   int
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Token is an optional bearer credential. When set, requests are
	// authenticated and the API grants a much higher rate limit.
	Token string

	// BaseURL overrides the API root (for testing against a mock server).
	BaseURL string

	// UserAgent is sent on every request, required by the GitHub API.
	UserAgent string

	// Retry configures the request governor.
	Retry RetryConfig

	// PerPage is the page size hint, maximum 100.
	PerPage int

	// MaxPages caps pagination per user, guarding against an API that
	// keeps advertising continuation pages.
	MaxPages int

	// Timeout applies per HTTP request.
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(token string) Config {
	return Config{
		Token:     token,
		BaseURL:   DefaultBaseURL,
		UserAgent: "devradar/0.1.0",
		Retry:     DefaultRetryConfig(),
		PerPage:   100,
		MaxPages:  50,
		Timeout:   30 * time.Second,
	}
}

// New creates a new GitHub client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PerPage <= 0 || cfg.PerPage > 100 {
		cfg.PerPage = 100
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 50
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.Retry = cfg.Retry.withDefaults()

	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient.Transport = &oauth2.Transport{Source: ts}
	}

	logger := log.With().Str("component", "github-client").Logger()

	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		retry:      cfg.Retry,
		perPage:    cfg.PerPage,
		maxPages:   cfg.MaxPages,
		logger:     logger,
	}, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// observeRateLimit publishes the most recent window state to metrics.
func observeRateLimit(state ratelimit.State) {
	if state.HasRemaining {
		rateLimitRemaining.Set(float64(state.Remaining))
	}
}
