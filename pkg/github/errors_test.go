package github

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		contains []string
	}{
		{
			name: "without wrapped error",
			err: &APIError{
				Kind:       KindNotFound,
				StatusCode: 404,
				Message:    "no such user or collection",
			},
			contains: []string{"not_found", "404", "no such user"},
		},
		{
			name: "with wrapped error",
			err: &APIError{
				Kind:       KindTransient,
				StatusCode: 502,
				Message:    "server error",
				Err:        ErrRetryExhausted,
			},
			contains: []string{"transient", "502", "retry attempts exhausted"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("Error() = %q, missing %q", msg, want)
				}
			}
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := &APIError{Kind: KindTransient, Message: "request failed", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("Expected errors.Is to find the wrapped error")
	}

	wrapped := fmt.Errorf("fetch repos for octocat: %w", err)
	var apiErr *APIError
	if !errors.As(wrapped, &apiErr) {
		t.Fatal("Expected errors.As to find APIError through wrapping")
	}
	if apiErr.Kind != KindTransient {
		t.Errorf("Kind = %s, want transient", apiErr.Kind)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrKind
	}{
		{
			name:     "direct api error",
			err:      &APIError{Kind: KindNotFound},
			expected: KindNotFound,
		},
		{
			name:     "wrapped api error",
			err:      fmt.Errorf("fetch: %w", &APIError{Kind: KindRateLimited}),
			expected: KindRateLimited,
		},
		{
			name:     "plain error defaults to transient",
			err:      errors.New("boom"),
			expected: KindTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.expected {
				t.Errorf("KindOf() = %s, want %s", got, tt.expected)
			}
		})
	}
}
