package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "seedbed",
		Short: "Seedbed - Data Seeding Engine",
		Long: `Seedbed populates document collections from seed plans.

A plan names the target environment, the backing store and an ordered list
of collections, each seeded from an inline fixed dataset or a Starlark
generator script. Runs are idempotent: a collection that already holds
records (or enough records, in generated mode) is skipped.

Features:
  - YAML seed plans with per-collection environment allow-lists
  - Starlark generator scripts for fabricated datasets
  - CUE schemas constraining record shapes
  - Identity records routed through credential hashing
  - OPA/rego admission policies with live reload`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newWatchCommand())

	return rootCmd
}
