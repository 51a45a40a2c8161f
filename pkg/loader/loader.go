// Package loader reads the developer input list.
package loader

import (
	"encoding/csv"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Developer is one input record. Immutable, sourced once per run.
type Developer struct {
	Name       string `json:"name"`
	Username   string `json:"username"`
	ProfileURL string `json:"profile_url"`
}

// requiredColumns must all be present in the input header.
var requiredColumns = []string{"name", "username", "profile_url"}

// ReadDevelopers loads the developer list from a CSV file with a
// {name, username, profile_url} header. A row with an empty username gets
// one derived from a github.com profile URL; rows still without a username
// are skipped with a warning. An unreadable file or missing columns abort
// the whole run.
func ReadDevelopers(path string) ([]Developer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input list: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read input header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.ToLower(name))] = i
	}

	var missing []string
	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("input CSV missing required columns %v, present: %v", missing, header)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read input rows: %w", err)
	}

	logger := log.With().Str("component", "loader").Logger()
	developers := make([]Developer, 0, len(records))

	for i, record := range records {
		field := func(name string) string {
			idx := columns[name]
			if idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		name := field("name")
		username := field("username")
		profileURL := field("profile_url")

		if username == "" {
			username = usernameFromProfileURL(profileURL)
		}
		if username == "" {
			logger.Warn().Int("row", i+1).Msg("Skipping row without a derivable username")
			continue
		}
		if name == "" {
			name = username
		}

		developers = append(developers, Developer{
			Name:       name,
			Username:   username,
			ProfileURL: profileURL,
		})
	}

	return developers, nil
}

// ReadTable loads any CSV file into ordered rows keyed by header name.
// Short rows leave the missing cells empty. Used by callers that need the
// raw table rather than the developer schema.
func ReadTable(path string) ([]map[string]string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read table header: %w", err)
	}
	for i, name := range header {
		header[i] = strings.TrimSpace(name)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read table rows: %w", err)
	}

	rows := make([]map[string]string, 0, len(records))
	for _, record := range records {
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, header, nil
}

// usernameFromProfileURL extracts the login from a github.com profile URL,
// empty when the URL is not a usable GitHub profile.
func usernameFromProfileURL(profileURL string) string {
	if profileURL == "" {
		return ""
	}
	parsed, err := url.Parse(profileURL)
	if err != nil {
		return ""
	}
	if !strings.HasSuffix(parsed.Hostname(), "github.com") {
		return ""
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}
