// Package analyze derives activity metrics from a fetched repository set.
// Aggregation is a pure function of the input and a reference time: no I/O,
// no clock reads, byte-identical output for identical input.
package analyze

import (
	"time"

	"github.com/devradar/devradar/pkg/github"
)

// LanguageUnspecified is the bucket for repositories without a reported
// language, so that language counts always sum to the repository count.
const LanguageUnspecified = "unspecified"

// Windows configures the recency lookback windows, in days.
type Windows struct {
	ShortDays int
	LongDays  int
}

// DefaultWindows returns the standard 30/90 day lookback.
func DefaultWindows() Windows {
	return Windows{ShortDays: 30, LongDays: 90}
}

// RecentActivity counts repositories updated within each lookback window.
// The field names reflect the default windows; overridden windows keep the
// same output keys so the summary column set stays fixed.
type RecentActivity struct {
	UpdatedShort int `json:"updated_last_30d"`
	UpdatedLong  int `json:"updated_last_90d"`
}

// Metrics is the immutable per-developer activity snapshot.
type Metrics struct {
	RepoCount           int            `json:"repo_count"`
	TotalStars          int            `json:"total_stars"`
	TotalForks          int            `json:"total_forks"`
	Languages           map[string]int `json:"languages"`
	RecentActivity      RecentActivity `json:"recent_activity"`
	LastPushedAt        *time.Time     `json:"last_pushed_at"`
	LastUpdatedAt       *time.Time     `json:"last_updated_at"`
	MonthlyUpdateCounts map[string]int `json:"monthly_update_counts"`
}

// Aggregate computes the metrics snapshot for one developer's repositories.
// now is the reference time for the recency windows; passing it in keeps the
// function deterministic and testable.
func Aggregate(repos []github.Repo, now time.Time, w Windows) Metrics {
	if w.ShortDays <= 0 {
		w.ShortDays = DefaultWindows().ShortDays
	}
	if w.LongDays <= 0 {
		w.LongDays = DefaultWindows().LongDays
	}

	m := Metrics{
		RepoCount:           len(repos),
		Languages:           make(map[string]int),
		MonthlyUpdateCounts: make(map[string]int),
	}

	shortCutoff := now.AddDate(0, 0, -w.ShortDays)
	longCutoff := now.AddDate(0, 0, -w.LongDays)

	for _, repo := range repos {
		m.TotalStars += repo.Stars
		m.TotalForks += repo.Forks

		lang := LanguageUnspecified
		if repo.Language != nil && *repo.Language != "" {
			lang = *repo.Language
		}
		m.Languages[lang]++

		if !repo.PushedAt.IsZero() {
			if m.LastPushedAt == nil || repo.PushedAt.After(*m.LastPushedAt) {
				pushed := repo.PushedAt
				m.LastPushedAt = &pushed
			}
		}

		if repo.UpdatedAt.IsZero() {
			continue
		}
		if m.LastUpdatedAt == nil || repo.UpdatedAt.After(*m.LastUpdatedAt) {
			updated := repo.UpdatedAt
			m.LastUpdatedAt = &updated
		}

		m.MonthlyUpdateCounts[repo.UpdatedAt.UTC().Format("2006-01")]++

		if !repo.UpdatedAt.Before(shortCutoff) {
			m.RecentActivity.UpdatedShort++
		}
		if !repo.UpdatedAt.Before(longCutoff) {
			m.RecentActivity.UpdatedLong++
		}
	}

	return m
}
