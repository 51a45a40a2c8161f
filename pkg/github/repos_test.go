package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/devradar/devradar/internal/testutil"
)

func TestFetchAllRepos_SinglePage(t *testing.T) {
	mock := testutil.NewMockGitHub()
	defer mock.Close()
	mock.SetUserRepos("octocat", []map[string]any{
		testutil.RepoJSON("alpha", "Go", 5, 1, "2024-01-15T10:00:00Z"),
		testutil.RepoJSON("beta", "", 2, 0, "2024-02-03T10:00:00Z"),
	})

	client := newTestClient(t, mock)

	repos, err := client.FetchAllRepos(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("FetchAllRepos() failed: %v", err)
	}

	if len(repos) != 2 {
		t.Fatalf("Got %d repos, want 2", len(repos))
	}
	if repos[0].Name != "alpha" || repos[0].Stars != 5 {
		t.Errorf("First repo = %+v, want alpha with 5 stars", repos[0])
	}
	if repos[0].Language == nil || *repos[0].Language != "Go" {
		t.Errorf("First repo language = %v, want Go", repos[0].Language)
	}
	// Missing language normalizes to nil, never an error.
	if repos[1].Language != nil {
		t.Errorf("Second repo language = %v, want nil", *repos[1].Language)
	}
	if repos[1].UpdatedAt.IsZero() {
		t.Error("Expected parsed updated_at timestamp")
	}
}

func TestFetchAllRepos_FollowsContinuation(t *testing.T) {
	mock := testutil.NewMockGitHub()
	defer mock.Close()
	mock.SetUserRepos("prolific",
		[]map[string]any{
			testutil.RepoJSON("one", "Go", 1, 0, "2024-01-01T00:00:00Z"),
			testutil.RepoJSON("two", "Rust", 2, 0, "2024-01-02T00:00:00Z"),
		},
		[]map[string]any{
			testutil.RepoJSON("three", "Go", 3, 0, "2024-01-03T00:00:00Z"),
		},
	)

	client := newTestClient(t, mock)

	repos, err := client.FetchAllRepos(context.Background(), "prolific")
	if err != nil {
		t.Fatalf("FetchAllRepos() failed: %v", err)
	}

	if len(repos) != 3 {
		t.Fatalf("Got %d repos, want 3 across two pages", len(repos))
	}
	// API return order is preserved.
	wantOrder := []string{"one", "two", "three"}
	for i, name := range wantOrder {
		if repos[i].Name != name {
			t.Errorf("repos[%d].Name = %s, want %s", i, repos[i].Name, name)
		}
	}
	if got := mock.GetPathCount("/users/prolific/repos"); got != 2 {
		t.Errorf("Request count = %d, want 2", got)
	}
}

func TestFetchAllRepos_EmptyCollection(t *testing.T) {
	mock := testutil.NewMockGitHub()
	defer mock.Close()
	// Default handler serves an empty list.

	client := newTestClient(t, mock)

	repos, err := client.FetchAllRepos(context.Background(), "newcomer")
	if err != nil {
		t.Fatalf("FetchAllRepos() failed: %v", err)
	}
	if len(repos) != 0 {
		t.Errorf("Got %d repos, want 0", len(repos))
	}
}

func TestFetchAllRepos_TerminatesAtPageCap(t *testing.T) {
	mock := testutil.NewMockGitHub()
	defer mock.Close()

	// A pathological server that always returns a non-empty page with a
	// next link. Pagination must still terminate at the cap.
	mock.SetHandler("/users/infinite/repos", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Link", fmt.Sprintf(`<%s/users/infinite/repos?page=2>; rel="next"`, mock.URL()))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`[{"name": "loop", "stargazers_count": 1}]`))
	})

	client := newTestClient(t, mock)
	client.maxPages = 5

	repos, err := client.FetchAllRepos(context.Background(), "infinite")
	if err != nil {
		t.Fatalf("FetchAllRepos() failed: %v", err)
	}
	if len(repos) != 5 {
		t.Errorf("Got %d repos, want 5 (one per page up to the cap)", len(repos))
	}
	if got := mock.GetPathCount("/users/infinite/repos"); got != 5 {
		t.Errorf("Request count = %d, want 5 (page cap)", got)
	}
}

func TestFetchAllRepos_PageFailureDiscardsPartialResults(t *testing.T) {
	mock := testutil.NewMockGitHub()
	defer mock.Close()

	// First page succeeds with a continuation, second page always fails.
	mock.SetHandler("/users/unlucky/repos", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/users/unlucky/repos?page=2>; rel="next"`, mock.URL()))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`[{"name": "partial", "stargazers_count": 9}]`))
	})

	client := newTestClient(t, mock)

	repos, err := client.FetchAllRepos(context.Background(), "unlucky")
	if err == nil {
		t.Fatal("Expected error after page failure, got nil")
	}
	if repos != nil {
		t.Errorf("Expected nil repos on failure, got %d items", len(repos))
	}
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("Expected ErrRetryExhausted in chain, got %v", err)
	}
}

func TestFetchAllRepos_MalformedPageBody(t *testing.T) {
	mock := testutil.NewMockGitHub()
	defer mock.Close()
	mock.SetResponse("/users/broken/repos", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"not": "a list"}`,
	})

	client := newTestClient(t, mock)

	_, err := client.FetchAllRepos(context.Background(), "broken")
	if KindOf(err) != KindTransient {
		t.Errorf("KindOf = %s, want transient", KindOf(err))
	}
}

func TestNextLink(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{
			name:     "next and last present",
			header:   `<https://api.github.com/user/1/repos?page=2>; rel="next", <https://api.github.com/user/1/repos?page=7>; rel="last"`,
			expected: "https://api.github.com/user/1/repos?page=2",
		},
		{
			name:     "only prev and first",
			header:   `<https://api.github.com/user/1/repos?page=1>; rel="prev", <https://api.github.com/user/1/repos?page=1>; rel="first"`,
			expected: "",
		},
		{
			name:     "empty header",
			header:   "",
			expected: "",
		},
		{
			name:     "malformed brackets",
			header:   `https://api.github.com/user/1/repos?page=2; rel="next"`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextLink(tt.header); got != tt.expected {
				t.Errorf("nextLink() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestRawRepo_Normalize(t *testing.T) {
	desc := "a thing"
	lang := "Go"

	tests := []struct {
		name string
		raw  rawRepo
		want func(t *testing.T, repo Repo)
	}{
		{
			name: "all fields present",
			raw: rawRepo{
				Name:        "full",
				HTMLURL:     "https://github.com/x/full",
				Description: &desc,
				Language:    &lang,
				Stars:       10,
				Forks:       2,
				OpenIssues:  1,
				CreatedAt:   "2023-05-01T00:00:00Z",
				UpdatedAt:   "2024-01-15T12:30:00Z",
				PushedAt:    "2024-01-10T08:00:00Z",
			},
			want: func(t *testing.T, repo Repo) {
				if repo.UpdatedAt.Year() != 2024 || repo.UpdatedAt.Month() != 1 {
					t.Errorf("UpdatedAt = %v, want 2024-01", repo.UpdatedAt)
				}
				if repo.Description == nil || *repo.Description != desc {
					t.Errorf("Description = %v, want %q", repo.Description, desc)
				}
			},
		},
		{
			name: "malformed timestamp becomes zero value",
			raw:  rawRepo{Name: "bad-ts", UpdatedAt: "yesterday"},
			want: func(t *testing.T, repo Repo) {
				if !repo.UpdatedAt.IsZero() {
					t.Errorf("UpdatedAt = %v, want zero", repo.UpdatedAt)
				}
			},
		},
		{
			name: "negative counts clamp to zero",
			raw:  rawRepo{Name: "weird", Stars: -3},
			want: func(t *testing.T, repo Repo) {
				if repo.Stars != 0 {
					t.Errorf("Stars = %d, want 0", repo.Stars)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.want(t, tt.raw.normalize())
		})
	}
}
