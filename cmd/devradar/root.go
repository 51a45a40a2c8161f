// Command devradar scans GitHub developer profiles and extracts
// candidate signals from tabular exports.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/devradar/devradar/pkg/logging"
)

var rootCmd = &cobra.Command{
	Use:   "devradar",
	Short: "Developer activity scanner and signal extractor",
	Long: `devradar fetches public repository data for a list of GitHub
developers, aggregates activity metrics into per-developer reports, and
extracts skill and domain signals from candidate spreadsheets.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env file is fine, environment variables still apply.
		_ = godotenv.Load()

		verbose, _ := cmd.Flags().GetBool("verbose")
		level := logging.LevelInfo
		if verbose {
			level = logging.LevelDebug
		}
		logging.Setup(logging.Config{Level: level, Pretty: isTerminal()})
	},
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}

func isTerminal() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
