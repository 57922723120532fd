package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	catalogPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "oportuna",
	Short: "Investment opportunity pipeline",
	Long: `Investment opportunity pipeline

Collects daily bars for a fixed catalog of market indexes and ETFs,
stores them append-only in PostgreSQL, and derives per-segment metrics
and advisory BUY/SELL/HOLD signals.

Usage:
  go run ./cmd/oportuna [command]

Examples:
  go run ./cmd/oportuna migrate
  go run ./cmd/oportuna collect --period 2y
  go run ./cmd/oportuna analyze --segment 1
  go run ./cmd/oportuna api
  go run ./cmd/oportuna scheduler`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "catalog file (default is the embedded catalog)")
}
