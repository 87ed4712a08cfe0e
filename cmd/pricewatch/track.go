package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/pricewatch/internal/config"
	"github.com/nao1215/pricewatch/internal/log"
	"github.com/nao1215/pricewatch/internal/model"
	"github.com/nao1215/pricewatch/internal/report"
	"github.com/nao1215/pricewatch/internal/storage"
	"github.com/nao1215/pricewatch/internal/tracker"
)

// NewTrackCmd creates the track command.
func NewTrackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Fetch current prices for all configured sites",
		Long: `Track fetches every configured product page, extracts the title and
price, and records the results.

Each run overwrites the JSON snapshot (latest_prices.json), appends to
the CSV history (price_history.csv), and inserts into the SQLite
history database. A summary is printed when the run completes.

Examples:
  # Track the configured sites
  pricewatch track

  # Use a custom configuration file
  pricewatch track -c myconfig.yaml

  # Output a JSON report instead of the text summary
  pricewatch track --json

  # Write a Markdown report to a file
  pricewatch track --markdown -o report.md

Configuration file (.pricewatch) example:
  sites:
    amazon.it:
      url: https://www.amazon.it/dp/B0C78GHQRJ/
      headers:
        Cookie: "session-id=abc123"
    teknozone.it:
      url: https://www.teknozone.it/smartphone/galaxy-s23
      retailThreshold: 2000`,
		Args: cobra.NoArgs,
		RunE: runTrackCmd,
	}

	// Fetch behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().IntP("retries", "r", config.DefaultMaxAttempts,
		"Maximum fetch attempts per site")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of sites fetched concurrently")
	cmd.Flags().StringP("proxy", "p", "",
		"HTTP proxy URL for outgoing requests")

	// Configuration and data location
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .pricewatch in current or home directory)")
	cmd.Flags().StringP("dir", "d", "",
		"Data directory for snapshot, history and database (default: XDG data dir)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runTrackCmd executes the track command.
func runTrackCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	verbose := getVerboseFlag(cmd)
	logger := log.NewLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runTrack(ctx, cfg, logger, verbose)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxAttempts, err = cmd.Flags().GetInt("retries")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	proxy, err := cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}
	if proxy != "" {
		cfg.Proxy = proxy
	}

	dataDir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site configurations from the config file. An explicitly
	// given path must exist; otherwise a missing file means the
	// built-in sites are tracked.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	switch {
	case configPath != "":
		cfg.Sites, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case explicitConfigPath:
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	default:
		cfg.Sites = config.DefaultSites()
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// runTrack executes the tracking run and persists the results.
func runTrack(ctx context.Context, cfg *config.Config, logger *slog.Logger, verbose bool) error {
	sites := cfg.Sites.Names()

	logger.Info("starting tracking",
		"sites", sites,
		"concurrency", cfg.Concurrency,
		"dataDir", cfg.DataDir,
	)

	fmt.Printf("Tracking %d sites...\n", len(sites))
	startTime := time.Now()

	tr := tracker.New(cfg, tracker.WithLogger(logger))
	summary, err := tr.Run(ctx)
	if err != nil {
		return fmt.Errorf("tracking run failed: %w", err)
	}

	fmt.Printf("Tracking completed in %s\n", time.Since(startTime).Round(time.Millisecond))

	if err := persistResults(ctx, cfg, summary, logger); err != nil {
		return err
	}

	return outputReport(cfg, summary, verbose)
}

// persistResults writes the snapshot, appends the CSV history, and
// inserts the observations into the history database.
func persistResults(ctx context.Context, cfg *config.Config, summary *report.Summary, logger *slog.Logger) error {
	snapshot := &model.Snapshot{
		LastUpdated: summary.GeneratedAt,
		Prices:      summary.Records,
	}
	if err := storage.WriteSnapshot(cfg.SnapshotPath(), snapshot); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	logger.Info("snapshot written", "path", cfg.SnapshotPath())

	if err := storage.AppendHistory(cfg.HistoryPath(), summary.GeneratedAt, summary.Records); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	logger.Info("history appended", "path", cfg.HistoryPath())

	db, err := storage.OpenHistoryDB(cfg.DataDir, storage.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	if err := db.Insert(ctx, summary.GeneratedAt, summary.Records); err != nil {
		return fmt.Errorf("failed to save observations: %w", err)
	}
	logger.Info("observations saved", "count", len(summary.Records))

	return nil
}

// outputReport outputs the run summary in the requested format.
func outputReport(cfg *config.Config, summary *report.Summary, verbose bool) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-chosen report path
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(verbose))
	}

	if _, err := writer.Write(summary); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
