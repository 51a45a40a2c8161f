// Package runner drives one scan: every developer through fetch and
// aggregate, failures recorded without aborting the run, and a
// cross-developer summary at the end.
package runner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"github.com/rs/zerolog"

	"github.com/devradar/devradar/pkg/analyze"
	"github.com/devradar/devradar/pkg/github"
	"github.com/devradar/devradar/pkg/loader"
	"github.com/devradar/devradar/pkg/logging"
)

// Fetcher retrieves the full repository collection for one username.
type Fetcher interface {
	FetchAllRepos(ctx context.Context, username string) ([]github.Repo, error)
}

// Report is the per-developer output artifact.
type Report struct {
	RunToken    string           `json:"run_token"`
	GeneratedAt time.Time        `json:"generated_at"`
	Developer   loader.Developer `json:"developer"`
	Metrics     analyze.Metrics  `json:"metrics"`
	Repos       []github.Repo    `json:"repos"`
}

// Failure records one developer that could not be processed.
type Failure struct {
	Developer loader.Developer `json:"developer"`
	Kind      github.ErrKind   `json:"kind"`
	Message   string           `json:"message"`
}

// SummaryRow is the flattened per-developer projection for the summary
// table, in input order, successes only.
type SummaryRow struct {
	RunToken      string     `json:"run_token"`
	Name          string     `json:"name"`
	Username      string     `json:"username"`
	ProfileURL    string     `json:"profile_url"`
	RepoCount     int        `json:"repo_count"`
	TotalStars    int        `json:"total_stars"`
	TotalForks    int        `json:"total_forks"`
	UpdatedShort  int        `json:"updated_last_30d"`
	UpdatedLong   int        `json:"updated_last_90d"`
	LastUpdatedAt *time.Time `json:"last_updated_at"`
}

// Totals aggregates across all successfully processed developers.
type Totals struct {
	Developers  int     `json:"developers"`
	Succeeded   int     `json:"succeeded"`
	Failed      int     `json:"failed"`
	MeanStars   float64 `json:"mean_stars"`
	MedianStars float64 `json:"median_stars"`
}

// Result is everything one run produced.
type Result struct {
	RunToken string
	Reports  []Report
	Failures []Failure
	Summary  []SummaryRow
	Totals   Totals
}

// Config holds orchestrator configuration.
type Config struct {
	// Windows configures the aggregator's recency lookback.
	Windows analyze.Windows

	// Now supplies the reference time; defaults to time.Now. Injected for
	// deterministic tests.
	Now func() time.Time
}

// Runner executes the scan pipeline sequentially, one developer fully
// completed before the next, keeping the request rate predictable.
type Runner struct {
	fetcher Fetcher
	windows analyze.Windows
	now     func() time.Time
	logger  zerolog.Logger
}

// New creates a Runner.
func New(fetcher Fetcher, cfg Config) *Runner {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	windows := cfg.Windows
	if windows.ShortDays <= 0 && windows.LongDays <= 0 {
		windows = analyze.DefaultWindows()
	}
	return &Runner{
		fetcher: fetcher,
		windows: windows,
		now:     now,
		logger:  logging.NewLogger("runner"),
	}
}

// Run processes developers in input order. One developer's failure never
// aborts the run; cancellation stops starting new developers and returns
// whatever was collected so far.
func (r *Runner) Run(ctx context.Context, developers []loader.Developer) *Result {
	runToken := uuid.NewString()
	result := &Result{RunToken: runToken}

	r.logger.Info().
		Str("run_token", runToken).
		Int("developers", len(developers)).
		Msg("Starting scan")

	for _, dev := range developers {
		if err := ctx.Err(); err != nil {
			r.logger.Warn().
				Str("run_token", runToken).
				Str("username", dev.Username).
				Msg("Run cancelled, not starting remaining developers")
			break
		}

		r.logger.Info().Str("username", dev.Username).Msg("Processing developer")

		repos, err := r.fetcher.FetchAllRepos(ctx, dev.Username)
		if err != nil {
			kind := github.KindOf(err)
			r.logger.Error().
				Err(err).
				Str("username", dev.Username).
				Str("error_kind", string(kind)).
				Msg("Developer fetch failed")
			result.Failures = append(result.Failures, Failure{
				Developer: dev,
				Kind:      kind,
				Message:   err.Error(),
			})
			continue
		}

		generatedAt := r.now().UTC()
		metrics := analyze.Aggregate(repos, generatedAt, r.windows)

		result.Reports = append(result.Reports, Report{
			RunToken:    runToken,
			GeneratedAt: generatedAt,
			Developer:   dev,
			Metrics:     metrics,
			Repos:       repos,
		})

		r.logger.Info().
			Str("username", dev.Username).
			Int("repos", metrics.RepoCount).
			Int("stars", metrics.TotalStars).
			Msg("Developer processed")
	}

	result.Summary = summaryRows(result.Reports)
	result.Totals = totals(len(developers), result)

	r.logger.Info().
		Str("run_token", runToken).
		Int("succeeded", result.Totals.Succeeded).
		Int("failed", result.Totals.Failed).
		Msg("Scan complete")

	return result
}

// summaryRows flattens reports into the summary projection, preserving
// input order.
func summaryRows(reports []Report) []SummaryRow {
	rows := make([]SummaryRow, 0, len(reports))
	for _, report := range reports {
		m := report.Metrics
		rows = append(rows, SummaryRow{
			RunToken:      report.RunToken,
			Name:          report.Developer.Name,
			Username:      report.Developer.Username,
			ProfileURL:    report.Developer.ProfileURL,
			RepoCount:     m.RepoCount,
			TotalStars:    m.TotalStars,
			TotalForks:    m.TotalForks,
			UpdatedShort:  m.RecentActivity.UpdatedShort,
			UpdatedLong:   m.RecentActivity.UpdatedLong,
			LastUpdatedAt: m.LastUpdatedAt,
		})
	}
	return rows
}

// totals computes the cross-developer rollup.
func totals(developerCount int, result *Result) Totals {
	t := Totals{
		Developers: developerCount,
		Succeeded:  len(result.Reports),
		Failed:     len(result.Failures),
	}

	if len(result.Reports) == 0 {
		return t
	}

	starCounts := make([]float64, len(result.Reports))
	for i, report := range result.Reports {
		starCounts[i] = float64(report.Metrics.TotalStars)
	}
	if mean, err := stats.Mean(starCounts); err == nil {
		t.MeanStars = mean
	}
	if median, err := stats.Median(starCounts); err == nil {
		t.MedianStars = median
	}
	return t
}
