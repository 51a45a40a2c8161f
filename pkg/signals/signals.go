// Package signals extracts skill, education, and domain signals from free
// text columns using fixed keyword dictionaries. Extraction is pure and
// deterministic: the same text always yields the same signals.
package signals

import (
	"regexp"
	"sort"
	"strings"
)

// skillAliases maps a keyword to its skill bucket.
var skillAliases = map[string]string{
	// languages
	"python":     "Programming Languages",
	"java":       "Programming Languages",
	"c++":        "Programming Languages",
	"c#":         "Programming Languages",
	"javascript": "Programming Languages",
	"typescript": "Programming Languages",
	"go":         "Programming Languages",
	"rust":       "Programming Languages",
	"scala":      "Programming Languages",
	"sql":        "Programming Languages",
	// frameworks & libs
	"pytorch":      "ML Frameworks",
	"tensorflow":   "ML Frameworks",
	"scikit-learn": "ML Frameworks",
	"sklearn":      "ML Frameworks",
	"keras":        "ML Frameworks",
	"xgboost":      "ML Frameworks",
	"lightgbm":     "ML Frameworks",
	"numpy":        "Data Libraries",
	"pandas":       "Data Libraries",
	"matplotlib":   "Data Visualization",
	"seaborn":      "Data Visualization",
	// cloud
	"aws":   "Cloud",
	"gcp":   "Cloud",
	"azure": "Cloud",
	// data eng
	"spark":   "Data Engineering",
	"hadoop":  "Data Engineering",
	"kafka":   "Data Engineering",
	"airflow": "Data Engineering",
}

// educationKeywords maps a keyword to an education level.
var educationKeywords = map[string]string{
	"phd":    "Doctorate",
	"doctor": "Doctorate",
	"m.s":    "Masters",
	"ms":     "Masters",
	"mtech":  "Masters",
	"m.tech": "Masters",
	"m.sc":   "Masters",
	"btech":  "Bachelors",
	"b.tech": "Bachelors",
	"b.e":    "Bachelors",
	"be ":    "Bachelors",
	"b.sc":   "Bachelors",
}

// domainKeywords maps a keyword to a working domain.
var domainKeywords = map[string]string{
	"trading":       "Finance",
	"quant":         "Finance",
	"algorithmic":   "Finance",
	"algotrading":   "Finance",
	"backend":       "Software Engineering",
	"frontend":      "Software Engineering",
	"fullstack":     "Software Engineering",
	"data engineer": "Data",
	"data science":  "Data",
	"ml":            "AI/ML",
	"ai":            "AI/ML",
	"research":      "Research",
}

// textColumnHints mark columns worth scanning for signals.
var textColumnHints = []string{"bio", "summary", "experience", "description", "about"}

// urlishHints mark columns to skip in the fallback selection.
var urlishHints = []string{"url", "http", "https", "email", "image", "avatar", "stats"}

var whitespaceRE = regexp.MustCompile(`\s+`)

// Signals is the consolidated extraction result for one row.
type Signals struct {
	Education     []string            `json:"education"`
	Skills        map[string][]string `json:"skills"`
	DomainCounts  map[string]int      `json:"domain_counts"`
	PrimaryDomain string              `json:"primary_domain"`
}

// SelectTextColumns picks the columns to scan: any column whose name hints
// at free text, falling back to every non-URL-ish column when none match.
func SelectTextColumns(fieldnames []string) []string {
	var selected []string
	for _, field := range fieldnames {
		lower := strings.ToLower(field)
		for _, hint := range textColumnHints {
			if strings.Contains(lower, hint) {
				selected = append(selected, field)
				break
			}
		}
	}
	if len(selected) > 0 {
		return selected
	}

	for _, field := range fieldnames {
		lower := strings.ToLower(field)
		urlish := false
		for _, hint := range urlishHints {
			if strings.Contains(lower, hint) {
				urlish = true
				break
			}
		}
		if !urlish {
			selected = append(selected, field)
		}
	}
	return selected
}

// normalizeText lowercases and collapses whitespace.
func normalizeText(s string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(strings.ToLower(s), " "))
}

// ExtractSkills returns matched skill aliases grouped by bucket, each
// bucket's aliases sorted.
func ExtractSkills(text string) map[string][]string {
	normalized := normalizeText(text)
	byBucket := make(map[string]map[string]struct{})
	for alias, bucket := range skillAliases {
		if strings.Contains(normalized, alias) {
			if byBucket[bucket] == nil {
				byBucket[bucket] = make(map[string]struct{})
			}
			byBucket[bucket][alias] = struct{}{}
		}
	}

	skills := make(map[string][]string, len(byBucket))
	for bucket, aliases := range byBucket {
		sorted := make([]string, 0, len(aliases))
		for alias := range aliases {
			sorted = append(sorted, alias)
		}
		sort.Strings(sorted)
		skills[bucket] = sorted
	}
	return skills
}

// ExtractEducation returns the matched education levels, sorted.
func ExtractEducation(text string) []string {
	normalized := normalizeText(text)
	levels := make(map[string]struct{})
	for keyword, level := range educationKeywords {
		if strings.Contains(normalized, keyword) {
			levels[level] = struct{}{}
		}
	}

	sorted := make([]string, 0, len(levels))
	for level := range levels {
		sorted = append(sorted, level)
	}
	sort.Strings(sorted)
	return sorted
}

// ExtractDomains counts domain keyword occurrences per domain.
func ExtractDomains(text string) map[string]int {
	normalized := normalizeText(text)
	counts := make(map[string]int)
	for keyword, domain := range domainKeywords {
		if n := strings.Count(normalized, keyword); n > 0 {
			counts[domain] += n
		}
	}
	return counts
}

// Consolidate combines the extractions and picks the primary domain: the
// highest count, ties broken lexicographically for determinism. When no
// domain matched but skills exist, the primary domain backfills to
// Software Engineering.
func Consolidate(skills map[string][]string, education []string, domains map[string]int) Signals {
	primary := ""
	best := 0
	domainNames := make([]string, 0, len(domains))
	for domain := range domains {
		domainNames = append(domainNames, domain)
	}
	sort.Strings(domainNames)
	for _, domain := range domainNames {
		if domains[domain] > best {
			best = domains[domain]
			primary = domain
		}
	}

	if primary == "" && len(skills) > 0 {
		primary = "Software Engineering"
	}

	if skills == nil {
		skills = map[string][]string{}
	}
	if education == nil {
		education = []string{}
	}
	if domains == nil {
		domains = map[string]int{}
	}

	return Signals{
		Education:     education,
		Skills:        skills,
		DomainCounts:  domains,
		PrimaryDomain: primary,
	}
}

// Extract runs the full pipeline over one combined text blob.
func Extract(text string) Signals {
	return Consolidate(ExtractSkills(text), ExtractEducation(text), ExtractDomains(text))
}
