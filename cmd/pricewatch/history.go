package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/pricewatch/internal/config"
	"github.com/nao1215/pricewatch/internal/storage"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded price history",
		Long: `History queries the SQLite price database written by track runs.

Without flags it lists the most recent observations across all sites.

Examples:
  # Show the last 20 observations
  pricewatch history

  # Show all observations for one site
  pricewatch history --site amazon.it --limit 0

  # List the sites present in the history
  pricewatch history --sites`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().StringP("site", "s", "", "Only show observations for this site")
	cmd.Flags().IntP("limit", "l", 20, "Maximum number of observations to show (0 = all)")
	cmd.Flags().Bool("sites", false, "List sites present in the history and exit")
	cmd.Flags().StringP("dir", "d", "", "Data directory (default: XDG data dir)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	site, err := cmd.Flags().GetString("site")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	listSites, err := cmd.Flags().GetBool("sites")
	if err != nil {
		return err
	}
	dataDir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return err
	}
	if dataDir == "" {
		dataDir = config.XDGDataDir()
	}

	// Never create an empty database just to report no history.
	db, err := storage.OpenHistoryDB(dataDir, storage.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("no price history yet (run 'pricewatch track' first): %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()

	if listSites {
		sites, err := db.Sites(ctx)
		if err != nil {
			return err
		}
		for _, s := range sites {
			fmt.Fprintln(cmd.OutOrStdout(), s)
		}
		return nil
	}

	observations, err := db.History(ctx, site, limit)
	if err != nil {
		return err
	}
	if len(observations) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No observations recorded.")
		return nil
	}

	printObservations(cmd, observations)
	return nil
}

// printObservations renders observations as an aligned text table.
func printObservations(cmd *cobra.Command, observations []storage.Observation) {
	siteWidth := len("SITE")
	priceWidth := len("PRICE")
	for _, o := range observations {
		if len(o.Site) > siteWidth {
			siteWidth = len(o.Site)
		}
		if len(o.Price) > priceWidth {
			priceWidth = len(o.Price)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-19s  %-*s  %-*s  %s\n", "TIMESTAMP", siteWidth, "SITE", priceWidth, "PRICE", "TITLE")
	fmt.Fprintf(out, "%s  %s  %s  %s\n",
		strings.Repeat("-", 19),
		strings.Repeat("-", siteWidth),
		strings.Repeat("-", priceWidth),
		strings.Repeat("-", 30),
	)
	for _, o := range observations {
		fmt.Fprintf(out, "%-19s  %-*s  %-*s  %s\n",
			o.Timestamp.Format("2006-01-02 15:04:05"),
			siteWidth, o.Site,
			priceWidth, o.Price,
			o.Title,
		)
	}
}
