package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Repo is one normalized repository record. Description and Language are
// nil when the API omits them; that is an expected shape, not an error.
type Repo struct {
	Name        string    `json:"name"`
	URL         string    `json:"html_url"`
	Description *string   `json:"description"`
	Language    *string   `json:"language"`
	Stars       int       `json:"stargazers_count"`
	Forks       int       `json:"forks_count"`
	OpenIssues  int       `json:"open_issues_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	PushedAt    time.Time `json:"pushed_at"`
}

// rawRepo mirrors the wire shape loosely enough that one malformed field
// never fails the whole page.
type rawRepo struct {
	Name        string  `json:"name"`
	HTMLURL     string  `json:"html_url"`
	Description *string `json:"description"`
	Language    *string `json:"language"`
	Stars       int     `json:"stargazers_count"`
	Forks       int     `json:"forks_count"`
	OpenIssues  int     `json:"open_issues_count"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	PushedAt    string  `json:"pushed_at"`
}

// normalize converts a wire record into a Repo. Malformed timestamps
// become zero values rather than errors.
func (r rawRepo) normalize() Repo {
	return Repo{
		Name:        r.Name,
		URL:         r.HTMLURL,
		Description: r.Description,
		Language:    r.Language,
		Stars:       max(r.Stars, 0),
		Forks:       max(r.Forks, 0),
		OpenIssues:  max(r.OpenIssues, 0),
		CreatedAt:   parseTime(r.CreatedAt),
		UpdatedAt:   parseTime(r.UpdatedAt),
		PushedAt:    parseTime(r.PushedAt),
	}
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FetchAllRepos retrieves every repository owned by username, page by page.
// Pagination follows the Link header's rel="next" URL and stops on an empty
// page, an absent continuation, or the configured page cap. Any page failure
// discards pages already gathered: the caller gets all items or none.
func (c *Client) FetchAllRepos(ctx context.Context, username string) ([]Repo, error) {
	pageURL := fmt.Sprintf("%s/users/%s/repos?per_page=%d&type=owner&sort=updated",
		c.baseURL, url.PathEscape(username), c.perPage)

	var repos []Repo
	pages := 0

	for pageURL != "" {
		if pages >= c.maxPages {
			c.logger.Warn().
				Str("username", username).
				Int("max_pages", c.maxPages).
				Msg("Page cap reached, stopping pagination")
			break
		}

		result, err := c.getPage(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("fetch repos for %s: %w", username, err)
		}
		pages++

		var raw []rawRepo
		if err := json.Unmarshal(result.body, &raw); err != nil {
			return nil, &APIError{Kind: KindTransient, Message: "decode repository page", Err: err}
		}
		if len(raw) == 0 {
			break
		}
		for _, r := range raw {
			repos = append(repos, r.normalize())
		}

		pageURL = result.next
		if pageURL != "" {
			c.logger.Debug().
				Str("username", username).
				Int("pages", pages).
				Msg("Following next page")
		}
	}

	c.logger.Debug().
		Str("username", username).
		Int("pages", pages).
		Int("repos", len(repos)).
		Msg("Repository fetch complete")

	return repos, nil
}

// nextLink extracts the rel="next" URL from a Link header, empty when no
// continuation remains.
//
// Example: <https://api.github.com/user/1/repos?page=2>; rel="next", <...>; rel="last"
func nextLink(header string) string {
	if header == "" {
		return ""
	}
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		start := strings.IndexByte(part, '<')
		end := strings.IndexByte(part, '>')
		if start == -1 || end == -1 || end <= start+1 {
			continue
		}
		return part[start+1 : end]
	}
	return ""
}

// endpointLabel reduces a request URL to its path for metric labels.
func endpointLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "invalid"
	}
	return u.Path
}
