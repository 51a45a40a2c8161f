package main

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/devradar/devradar/pkg/output"
	"github.com/devradar/devradar/pkg/signals"
)

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Extract skill and domain signals from a candidate spreadsheet",
	Long: `signals reads an arbitrary candidate CSV, scans its free-text
columns against keyword dictionaries, and writes one row_<n>.json record
per input row plus a signals.csv summary. When --reports points at a scan
output directory, matching <username>.json reports enrich the signals with
repository languages and descriptions.`,
	RunE: runSignals,
}

func init() {
	rootCmd.AddCommand(signalsCmd)

	signalsCmd.Flags().StringP("input", "i", "candidates.csv", "Candidate CSV")
	signalsCmd.Flags().StringP("out", "o", "signals", "Output directory")
	signalsCmd.Flags().StringP("reports", "r", "", "Scan report directory for enrichment")
}

func runSignals(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	outDir, _ := cmd.Flags().GetString("out")
	reportsDir, _ := cmd.Flags().GetString("reports")

	rows, fieldnames, err := signals.LoadRows(input)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no rows in %s", input)
	}

	if err := output.EnsureDir(outDir); err != nil {
		return err
	}

	var opts []signals.Option
	if reportsDir != "" {
		opts = append(opts, signals.WithReportsDir(reportsDir))
	}
	extractor := signals.NewExtractor(opts...)
	records, summary := extractor.Run(rows, fieldnames)

	for _, record := range records {
		path := filepath.Join(outDir, fmt.Sprintf("row_%d.json", record.RowIndex))
		if err := output.WriteJSON(path, record); err != nil {
			return err
		}
	}

	csvRows := make([][]string, 0, len(summary))
	enriched := 0
	for _, row := range summary {
		csvRows = append(csvRows, row.Fields())
		if row.Enriched {
			enriched++
		}
	}
	summaryPath := filepath.Join(outDir, "signals.csv")
	if err := output.WriteCSV(summaryPath, signals.SummaryColumns, csvRows); err != nil {
		return err
	}

	log.Info().
		Str("run_token", records[0].RunToken).
		Int("rows", len(records)).
		Int("enriched", enriched).
		Str("out", outDir).
		Msg("Signal extraction complete")
	return nil
}
