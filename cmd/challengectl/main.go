// Package main implements challengectl, the operator CLI for the dispute
// outcome analytics engine.
//
// challengectl provides commands for:
//   - Computing carrier analytics, trends and triage accuracy on demand
//   - Generating and back-filling monthly reports
//   - Refreshing system snapshots
//   - Minting bearer tokens and hashing client secrets
//   - Applying schema migrations
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// cfgFile holds the path to the configuration file.
var cfgFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "challengectl",
		Short: "Dispute outcome analytics from the command line",
		Long: `challengectl runs the dispute outcome analytics engine against the configured
record store and writes results as JSON to stdout.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", os.Getenv("CHALLENGEFLOW_CONFIG"), "config file")

	rootCmd.AddCommand(newCarrierCmd())
	rootCmd.AddCommand(newTrendsCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newBackfillCmd())
	rootCmd.AddCommand(newTriageCmd())
	rootCmd.AddCommand(newSystemCmd())
	rootCmd.AddCommand(newTokenCmd())
	rootCmd.AddCommand(newMigrateCmd())

	return rootCmd
}
