// Package testutil provides testing utilities for devradar.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior for one mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockGitHub is a configurable mock GitHub API server for testing.
type MockGitHub struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	// Tracking
	RequestCount int
	PathCounts   map[string]int
}

// NewMockGitHub creates a new mock GitHub API server.
func NewMockGitHub() *MockGitHub {
	mock := &MockGitHub{
		handlers:   make(map[string]http.HandlerFunc),
		PathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.PathCounts[r.URL.Path]++
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockGitHub) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockGitHub) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockGitHub) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.PathCounts = make(map[string]int)
}

// SetHandler sets a custom handler for a specific path.
func (m *MockGitHub) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockGitHub) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetUserRepos serves the given repository pages for a username, emitting a
// Link rel="next" header on every page except the last, the way the real
// list-repositories endpoint paginates.
func (m *MockGitHub) SetUserRepos(username string, pages ...[]map[string]any) {
	path := fmt.Sprintf("/users/%s/repos", username)
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		page := 1
		if p := r.URL.Query().Get("page"); p != "" {
			fmt.Sscanf(p, "%d", &page)
		}

		setHealthyHeaders(w.Header())
		if page < 1 || page > len(pages) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("[]"))
			return
		}

		if page < len(pages) {
			next := fmt.Sprintf("%s%s?per_page=100&page=%d", m.server.URL, path, page+1)
			last := fmt.Sprintf("%s%s?per_page=100&page=%d", m.server.URL, path, len(pages))
			w.Header().Set("Link", fmt.Sprintf(`<%s>; rel="next", <%s>; rel="last"`, next, last))
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(pages[page-1])
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockGitHub) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetPathCount returns how many requests hit one path.
func (m *MockGitHub) GetPathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PathCounts[path]
}

// defaultHandler answers with an empty repository list and healthy headers.
func (m *MockGitHub) defaultHandler(w http.ResponseWriter, r *http.Request) {
	setHealthyHeaders(w.Header())
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("[]"))
}

func setHealthyHeaders(h http.Header) {
	h.Set("X-RateLimit-Remaining", "4999")
	h.Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(time.Hour).Unix()))
	h.Set("Content-Type", "application/json; charset=utf-8")
}

// RepoJSON builds one wire-shaped repository object for mock pages.
func RepoJSON(name, language string, stars, forks int, updatedAt string) map[string]any {
	repo := map[string]any{
		"name":              name,
		"html_url":          "https://github.com/test/" + name,
		"description":       "test repository",
		"stargazers_count":  stars,
		"forks_count":       forks,
		"open_issues_count": 0,
		"created_at":        "2020-01-01T00:00:00Z",
		"updated_at":        updatedAt,
		"pushed_at":         updatedAt,
	}
	if language != "" {
		repo["language"] = language
	}
	return repo
}

// NewRateLimitResponse creates a 403 primary rate limit response whose
// window resets resetIn from now.
func NewRateLimitResponse(resetIn time.Duration) MockResponse {
	return MockResponse{
		StatusCode: http.StatusForbidden,
		Body:       `{"message": "API rate limit exceeded"}`,
		Headers: map[string]string{
			"X-RateLimit-Remaining": "0",
			"X-RateLimit-Reset":     fmt.Sprintf("%d", time.Now().Add(resetIn).Unix()),
			"Content-Type":          "application/json; charset=utf-8",
		},
	}
}

// NewSecondaryRateLimitResponse creates a 429 response with a Retry-After.
func NewSecondaryRateLimitResponse(retryAfter int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"message": "You have exceeded a secondary rate limit"}`,
		Headers: map[string]string{
			"Retry-After":  fmt.Sprintf("%d", retryAfter),
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewNotFoundResponse creates a 404 response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"message": "Not Found"}`,
		Headers: map[string]string{
			"X-RateLimit-Remaining": "4999",
			"Content-Type":          "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"message": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}
