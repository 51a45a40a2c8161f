package signals

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/devradar/devradar/pkg/github"
	"github.com/devradar/devradar/pkg/loader"
)

// Record is the per-row artifact written as <row>.json.
type Record struct {
	RunToken           string            `json:"run_token"`
	GeneratedAt        time.Time         `json:"generated_at"`
	RowIndex           int               `json:"row_index"`
	SourceFields       map[string]string `json:"source_fields"`
	Signals            Signals           `json:"signals"`
	EnrichedWithGitHub bool              `json:"enriched_with_github"`
}

// SummaryRow is one line of signals.csv.
type SummaryRow struct {
	RunToken      string
	RowIndex      int
	Username      string
	PrimaryDomain string
	Education     string
	SkillCount    int
	DomainMatches int
	Enriched      bool
}

// SummaryColumns is the fixed signals.csv header.
var SummaryColumns = []string{
	"run_token", "row_index", "username", "primary_domain",
	"education", "skill_count", "domain_matches", "enriched_with_github",
}

// Fields renders the row in SummaryColumns order.
func (r SummaryRow) Fields() []string {
	return []string{
		r.RunToken,
		fmt.Sprintf("%d", r.RowIndex),
		r.Username,
		r.PrimaryDomain,
		r.Education,
		fmt.Sprintf("%d", r.SkillCount),
		fmt.Sprintf("%d", r.DomainMatches),
		fmt.Sprintf("%t", r.Enriched),
	}
}

// Extractor turns tabular rows into signal records, optionally enriched
// with repository scan reports from a previous run.
type Extractor struct {
	reportsDir string
	now        func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithReportsDir points the extractor at a directory of <username>.json
// scan reports used for enrichment.
func WithReportsDir(dir string) Option {
	return func(e *Extractor) { e.reportsDir = dir }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// NewExtractor builds an Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LoadRows reads a CSV file into ordered rows keyed by header name.
func LoadRows(path string) ([]map[string]string, []string, error) {
	records, header, err := loader.ReadTable(path)
	if err != nil {
		return nil, nil, err
	}
	return records, header, nil
}

// Run extracts signals from every row. One record per input row, in input
// order, all stamped with a fresh run token.
func (e *Extractor) Run(rows []map[string]string, fieldnames []string) ([]Record, []SummaryRow) {
	runToken := uuid.NewString()
	generatedAt := e.now().UTC()
	textColumns := SelectTextColumns(fieldnames)

	records := make([]Record, 0, len(rows))
	summary := make([]SummaryRow, 0, len(rows))
	for i, row := range rows {
		var parts []string
		for _, col := range textColumns {
			if v := strings.TrimSpace(row[col]); v != "" {
				parts = append(parts, v)
			}
		}
		text := strings.Join(parts, " ")

		sig := Extract(text)
		username := usernameFromRow(row)
		enriched := false
		if username != "" && e.reportsDir != "" {
			enriched = e.enrich(&sig, username)
		}

		records = append(records, Record{
			RunToken:           runToken,
			GeneratedAt:        generatedAt,
			RowIndex:           i,
			SourceFields:       row,
			Signals:            sig,
			EnrichedWithGitHub: enriched,
		})
		summary = append(summary, SummaryRow{
			RunToken:      runToken,
			RowIndex:      i,
			Username:      username,
			PrimaryDomain: sig.PrimaryDomain,
			Education:     strings.Join(sig.Education, ";"),
			SkillCount:    skillCount(sig.Skills),
			DomainMatches: domainMatches(sig.DomainCounts),
			Enriched:      enriched,
		})
	}
	return records, summary
}

// scanReport is the subset of the repository scan artifact that
// enrichment consumes.
type scanReport struct {
	Metrics struct {
		Languages map[string]int `json:"languages"`
	} `json:"metrics"`
	Repos []github.Repo `json:"repos"`
}

// enrich folds a prior scan report into the signals: repository languages
// join the Programming Languages bucket and repo names plus descriptions
// feed the domain counts. Returns whether anything was actually merged.
func (e *Extractor) enrich(sig *Signals, username string) bool {
	path := filepath.Join(e.reportsDir, username+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("username", username).Msg("failed to read scan report")
		}
		return false
	}

	var report scanReport
	if err := json.Unmarshal(data, &report); err != nil {
		log.Warn().Err(err).Str("username", username).Msg("malformed scan report")
		return false
	}

	merged := false
	if len(report.Metrics.Languages) > 0 {
		if sig.Skills == nil {
			sig.Skills = map[string][]string{}
		}
		existing := sig.Skills["Programming Languages"]
		combined := make(map[string]struct{}, len(existing)+len(report.Metrics.Languages))
		for _, lang := range existing {
			combined[lang] = struct{}{}
		}
		for lang := range report.Metrics.Languages {
			combined[strings.ToLower(lang)] = struct{}{}
		}
		if len(combined) > len(existing) {
			langs := make([]string, 0, len(combined))
			for lang := range combined {
				langs = append(langs, lang)
			}
			sort.Strings(langs)
			sig.Skills["Programming Languages"] = langs
			merged = true
		}
	}

	var parts []string
	for _, repo := range report.Repos {
		parts = append(parts, repo.Name)
		if repo.Description != nil {
			parts = append(parts, *repo.Description)
		}
	}
	if len(parts) > 0 {
		if counts := ExtractDomains(strings.Join(parts, " ")); len(counts) > 0 {
			if sig.DomainCounts == nil {
				sig.DomainCounts = map[string]int{}
			}
			for domain, n := range counts {
				sig.DomainCounts[domain] += n
			}
			merged = true
		}
	}

	// Re-derive the primary domain whenever the inputs changed, so a
	// languages-only report still triggers the skills-without-domains
	// backfill.
	if merged {
		*sig = Consolidate(sig.Skills, sig.Education, sig.DomainCounts)
	}
	return merged
}

// usernameFromRow finds a GitHub username in the row: a github column
// first, then any github.com URL value.
func usernameFromRow(row map[string]string) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if strings.Contains(strings.ToLower(k), "github") {
			if u := usernameFromValue(row[k]); u != "" {
				return u
			}
		}
	}
	for _, k := range keys {
		if u := usernameFromURL(row[k]); u != "" {
			return u
		}
	}
	return ""
}

func usernameFromValue(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if u := usernameFromURL(v); u != "" {
		return u
	}
	if !strings.Contains(v, "/") && !strings.Contains(v, " ") {
		return v
	}
	return ""
}

func usernameFromURL(v string) string {
	u, err := url.Parse(strings.TrimSpace(v))
	if err != nil || !strings.HasSuffix(strings.ToLower(u.Hostname()), "github.com") {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) > 0 && segments[0] != "" {
		return segments[0]
	}
	return ""
}

func skillCount(skills map[string][]string) int {
	n := 0
	for _, aliases := range skills {
		n += len(aliases)
	}
	return n
}

func domainMatches(domains map[string]int) int {
	n := 0
	for _, c := range domains {
		n += c
	}
	return n
}
