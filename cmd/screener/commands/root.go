package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd runs a scan when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "TradingView strategy screener",
	Long: `Strategy Screener CLI

Runs a fixed catalog of technical-analysis filters against the
TradingView scanner, normalizes matches into signals and stores them
with daily dedup and 24h retention.

Usage:
  go run ./cmd/screener [command]

Examples:
  go run ./cmd/screener              (same as scan)
  go run ./cmd/screener scan --dry-run
  go run ./cmd/screener strategies
  go run ./cmd/screener scheduler start
  go run ./cmd/screener test-db`,
	PersistentPreRun: applyGlobalFlags,
	RunE:             runScan,
	SilenceUsage:     true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment (development|staging|production), overrides ENV")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// applyGlobalFlags pushes flag overrides into the environment before config.Load
func applyGlobalFlags(cmd *cobra.Command, args []string) {
	if env != "" {
		_ = os.Setenv("ENV", env)
	}
	if verbose {
		_ = os.Setenv("LOG_LEVEL", "debug")
	}
}
