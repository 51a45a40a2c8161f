// Package output writes run artifacts. Files are written atomically via a
// temp file and rename in the destination directory, so a crash mid-run
// leaves only complete or absent files, never truncated ones.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/devradar/devradar/pkg/runner"
)

// SummaryFileName is the cross-developer summary table.
const SummaryFileName = "summary.csv"

// summaryColumns is the fixed summary column set, in order.
var summaryColumns = []string{
	"run_token",
	"name",
	"username",
	"profile_url",
	"repo_count",
	"total_stars",
	"total_forks",
	"updated_last_30d",
	"updated_last_90d",
	"last_updated_at",
}

// EnsureDir creates the output directory if needed.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}

// WriteReport writes one developer report to <dir>/<username>.json and
// returns the written path.
func WriteReport(dir string, report runner.Report) (string, error) {
	path := filepath.Join(dir, report.Developer.Username+".json")
	if err := WriteJSON(path, report); err != nil {
		return "", fmt.Errorf("write report for %s: %w", report.Developer.Username, err)
	}
	return path, nil
}

// WriteSummary writes the summary table to <dir>/summary.csv and returns
// the written path. Rows keep their given (input) order.
func WriteSummary(dir string, rows []runner.SummaryRow) (string, error) {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		lastUpdated := ""
		if row.LastUpdatedAt != nil {
			lastUpdated = row.LastUpdatedAt.UTC().Format(time.RFC3339)
		}
		records = append(records, []string{
			row.RunToken,
			row.Name,
			row.Username,
			row.ProfileURL,
			strconv.Itoa(row.RepoCount),
			strconv.Itoa(row.TotalStars),
			strconv.Itoa(row.TotalForks),
			strconv.Itoa(row.UpdatedShort),
			strconv.Itoa(row.UpdatedLong),
			lastUpdated,
		})
	}

	path := filepath.Join(dir, SummaryFileName)
	if err := WriteCSV(path, summaryColumns, records); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	return path, nil
}

// WriteJSON writes v pretty-printed to path, atomically.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return writeAtomic(path, append(data, '\n'))
}

// WriteCSV writes a header plus records to path, atomically.
func WriteCSV(path string, header []string, records [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("write csv records: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return writeAtomic(path, buf.Bytes())
}

// writeAtomic writes data to a temp file next to path and renames it into
// place. The temp file lives in the same directory so the rename never
// crosses a filesystem boundary.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
