// Package main provides the entry point for the pricewatch CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for pricewatch.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pricewatch",
		Short: "Track product prices across e-commerce sites",
		Long: `Pricewatch tracks product prices across Italian e-commerce sites.

It fetches each configured product page, extracts the title and price,
and stores the results: a JSON snapshot with the latest prices, an
append-only CSV history, and a SQLite database for price-over-time
queries.

Sites are configured in a .pricewatch YAML file; without one, the
built-in product pages are tracked.`,
		Version:       resolveBuildMetadata().version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewTrackCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
