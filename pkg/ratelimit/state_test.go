package ratelimit

import (
	"net/http"
	"testing"
	"time"
)

func TestFromHeaders(t *testing.T) {
	tests := []struct {
		name             string
		headers          map[string]string
		wantRemaining    int
		wantHasRemaining bool
		wantHasReset     bool
		wantRetryAfter   time.Duration
	}{
		{
			name: "both headers present",
			headers: map[string]string{
				HeaderRemaining: "42",
				HeaderReset:     "1700000000",
			},
			wantRemaining:    42,
			wantHasRemaining: true,
			wantHasReset:     true,
		},
		{
			name:    "no headers",
			headers: map[string]string{},
		},
		{
			name: "malformed remaining is ignored",
			headers: map[string]string{
				HeaderRemaining: "not-a-number",
				HeaderReset:     "1700000000",
			},
			wantHasReset: true,
		},
		{
			name: "retry after parsed",
			headers: map[string]string{
				HeaderRetryAfter: "30",
			},
			wantRetryAfter: 30 * time.Second,
		},
		{
			name: "zero remaining is distinguishable from absent",
			headers: map[string]string{
				HeaderRemaining: "0",
			},
			wantRemaining:    0,
			wantHasRemaining: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}

			s := FromHeaders(h)

			if s.Remaining != tt.wantRemaining {
				t.Errorf("Remaining = %d, want %d", s.Remaining, tt.wantRemaining)
			}
			if s.HasRemaining != tt.wantHasRemaining {
				t.Errorf("HasRemaining = %v, want %v", s.HasRemaining, tt.wantHasRemaining)
			}
			if s.HasReset != tt.wantHasReset {
				t.Errorf("HasReset = %v, want %v", s.HasReset, tt.wantHasReset)
			}
			if s.RetryAfter != tt.wantRetryAfter {
				t.Errorf("RetryAfter = %v, want %v", s.RetryAfter, tt.wantRetryAfter)
			}
		})
	}
}

func TestState_Exhausted(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{
			name:     "requests remaining",
			state:    State{Remaining: 10, HasRemaining: true},
			expected: false,
		},
		{
			name:     "zero remaining",
			state:    State{Remaining: 0, HasRemaining: true},
			expected: true,
		},
		{
			name:     "header absent means not exhausted",
			state:    State{Remaining: 0, HasRemaining: false},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.Exhausted(); got != tt.expected {
				t.Errorf("Exhausted() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_WaitUntilReset(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		state    State
		expected time.Duration
	}{
		{
			name:     "reset in the future includes skew",
			state:    State{ResetAt: now.Add(30 * time.Second), HasReset: true},
			expected: 31 * time.Second,
		},
		{
			name:     "reset already passed",
			state:    State{ResetAt: now.Add(-10 * time.Second), HasReset: true},
			expected: 0,
		},
		{
			name:     "no reset header",
			state:    State{},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.WaitUntilReset(now); got != tt.expected {
				t.Errorf("WaitUntilReset() = %v, want %v", got, tt.expected)
			}
		})
	}
}
