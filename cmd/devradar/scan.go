package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/devradar/devradar/pkg/analyze"
	"github.com/devradar/devradar/pkg/github"
	"github.com/devradar/devradar/pkg/loader"
	"github.com/devradar/devradar/pkg/output"
	"github.com/devradar/devradar/pkg/runner"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Fetch repository data for each developer and write activity reports",
	Long: `scan reads a developer list CSV ({name, username, profile_url}),
fetches every developer's public repositories from the GitHub API, and
writes one <username>.json report per developer plus a summary.csv to the
output directory. Developers are processed sequentially; a single
developer's failure is recorded and the run continues.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringP("input", "i", "developers.csv", "Developer list CSV")
	scanCmd.Flags().StringP("out", "o", "reports", "Output directory")
	scanCmd.Flags().String("token", "", "GitHub API token (defaults to GITHUB_TOKEN)")
	scanCmd.Flags().String("base-url", github.DefaultBaseURL, "GitHub API base URL")
	scanCmd.Flags().Int("max-pages", 0, "Page cap per developer (0 uses the default)")
	scanCmd.Flags().Int("window-short", 30, "Short recency window in days")
	scanCmd.Flags().Int("window-long", 90, "Long recency window in days")
}

func runScan(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	outDir, _ := cmd.Flags().GetString("out")
	token, _ := cmd.Flags().GetString("token")
	baseURL, _ := cmd.Flags().GetString("base-url")
	maxPages, _ := cmd.Flags().GetInt("max-pages")
	windowShort, _ := cmd.Flags().GetInt("window-short")
	windowLong, _ := cmd.Flags().GetInt("window-long")

	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		log.Warn().Msg("No GitHub token configured, unauthenticated rate limits apply")
	}
	if windowShort > windowLong {
		return fmt.Errorf("--window-short (%d) must not exceed --window-long (%d)", windowShort, windowLong)
	}

	developers, err := loader.ReadDevelopers(input)
	if err != nil {
		return err
	}
	if len(developers) == 0 {
		return fmt.Errorf("no usable developers in %s", input)
	}

	cfg := github.DefaultConfig(token)
	cfg.BaseURL = baseURL
	if maxPages > 0 {
		cfg.MaxPages = maxPages
	}
	client, err := github.New(cfg)
	if err != nil {
		return err
	}

	if err := output.EnsureDir(outDir); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scan := runner.New(client, runner.Config{
		Windows: analyze.Windows{ShortDays: windowShort, LongDays: windowLong},
	})
	result := scan.Run(ctx, developers)

	for _, report := range result.Reports {
		path, err := output.WriteReport(outDir, report)
		if err != nil {
			return err
		}
		log.Debug().Str("path", path).Str("username", report.Developer.Username).Msg("Report written")
	}
	if _, err := output.WriteSummary(outDir, result.Summary); err != nil {
		return err
	}

	for _, failure := range result.Failures {
		fmt.Fprintf(os.Stderr, "failed: %s (%s): %s\n",
			failure.Developer.Username, failure.Kind, failure.Message)
	}
	log.Info().
		Str("run_token", result.RunToken).
		Int("developers", result.Totals.Developers).
		Int("succeeded", result.Totals.Succeeded).
		Int("failed", result.Totals.Failed).
		Float64("mean_stars", result.Totals.MeanStars).
		Msg("Scan complete")

	if len(result.Failures) > 0 {
		// Reports for the successful developers are already on disk.
		cmd.SilenceUsage = true
		return fmt.Errorf("%d of %d developers failed", len(result.Failures), result.Totals.Developers)
	}
	return nil
}
