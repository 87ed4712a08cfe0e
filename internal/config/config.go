package config

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. Each can be overridden by a PRICEWATCH_*
// environment variable and, where it makes sense interactively, by a CLI
// flag (flags win over environment).
const (
	// DefaultTimeout bounds each individual fetch attempt. Product pages
	// from the tracked shops normally answer well within this.
	DefaultTimeout = 15 * time.Second

	// DefaultMaxAttempts is the per-URL fetch attempt budget, first
	// attempt included.
	DefaultMaxAttempts = 3

	// DefaultPaceMin and DefaultPaceMax bound the randomized pause
	// inserted between pipeline launches. The jitter keeps request
	// timing irregular enough not to trip shop rate limiting.
	DefaultPaceMin = 1 * time.Second
	DefaultPaceMax = 3 * time.Second

	// DefaultConcurrency is the number of site pipelines allowed in
	// flight at once. The tracked site set is small, so a low ceiling
	// is enough.
	DefaultConcurrency = 3

	// DefaultSnapshotFile is the JSON snapshot filename inside DataDir.
	DefaultSnapshotFile = "latest_prices.json"

	// DefaultHistoryFile is the CSV history filename inside DataDir.
	DefaultHistoryFile = "price_history.csv"

	// AppName is used for XDG directory paths and the config file name.
	AppName = "pricewatch"
)

// userAgents are the browser identities the tracker rotates between.
// One is picked per run at configuration time, not per request, so a
// whole run presents a single consistent identity.
var userAgents = []string{
	// Chrome on Windows desktop
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	// Firefox on macOS
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:127.0) Gecko/20100101 Firefox/127.0",
	// Safari on macOS
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
	// Chrome on Android
	"Mozilla/5.0 (Linux; Android 12; Pixel 5) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Mobile Safari/537.36",
}

// Config holds all options for a tracking run. It is populated from
// defaults, then environment variables, then CLI flags, and passed
// through the application explicitly rather than via global state.
type Config struct {
	// DataDir is where the snapshot, CSV history, and history database
	// live. Defaults to the XDG data directory.
	DataDir string

	// SnapshotFile and HistoryFile are the output filenames inside
	// DataDir.
	SnapshotFile string
	HistoryFile  string

	// Timeout bounds each individual fetch attempt.
	Timeout time.Duration

	// MaxAttempts is the fetch retry budget per URL.
	MaxAttempts int

	// PaceMin and PaceMax bound the randomized inter-launch pause.
	PaceMin time.Duration
	PaceMax time.Duration

	// Concurrency caps the number of site pipelines in flight.
	Concurrency int

	// UserAgent identifies the run to the shops. Resolved once at
	// configuration time; see ResolveUserAgent.
	UserAgent string

	// Proxy, if set, routes all fetches through this HTTP/SOCKS proxy.
	Proxy string

	// ConfigFilePath is the site configuration file path. Empty means
	// search the working directory and then the home directory.
	ConfigFilePath string

	// Sites holds the per-site configuration (URLs, extra headers).
	// Populated from the config file, falling back to the built-in set.
	Sites *File

	// JSONReport and MarkdownReport select the report format written to
	// stdout (or ReportFile). Mutually exclusive; when both are false a
	// human-readable summary is printed.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile, if set, receives the report instead of stdout.
	ReportFile string
}

// NewConfig returns a Config with defaults applied, honoring PRICEWATCH_*
// environment variables.
func NewConfig() *Config {
	return &Config{
		DataDir:      envOr("PRICEWATCH_DATA_DIR", XDGDataDir()),
		SnapshotFile: envOr("PRICEWATCH_SNAPSHOT_FILE", DefaultSnapshotFile),
		HistoryFile:  envOr("PRICEWATCH_HISTORY_FILE", DefaultHistoryFile),
		Timeout:      envDurationOr("PRICEWATCH_TIMEOUT", DefaultTimeout),
		MaxAttempts:  envIntOr("PRICEWATCH_RETRIES", DefaultMaxAttempts),
		PaceMin:      envDurationOr("PRICEWATCH_PACE_MIN", DefaultPaceMin),
		PaceMax:      envDurationOr("PRICEWATCH_PACE_MAX", DefaultPaceMax),
		Concurrency:  envIntOr("PRICEWATCH_CONCURRENCY", DefaultConcurrency),
		UserAgent:    ResolveUserAgent(),
		Proxy:        os.Getenv("PRICEWATCH_PROXY"),
	}
}

// ResolveUserAgent picks the User-Agent for this run: the
// PRICEWATCH_USER_AGENT environment variable when set, otherwise a
// random pick from the built-in browser list. The choice is made once
// per run, not per request.
func ResolveUserAgent() string {
	if ua := os.Getenv("PRICEWATCH_USER_AGENT"); ua != "" {
		return ua
	}
	return userAgents[rand.IntN(len(userAgents))]
}

// XDGDataDir returns the XDG data directory for pricewatch.
// On Linux: ~/.local/share/pricewatch
// On macOS: ~/Library/Application Support/pricewatch
// On Windows: %LOCALAPPDATA%\pricewatch
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
// It is called once after flag parsing, before any network activity.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.MaxAttempts < 1 {
		return errors.New("retries must be at least 1")
	}
	if c.PaceMin < 0 || c.PaceMax < c.PaceMin {
		return fmt.Errorf("invalid pacing window [%v, %v]", c.PaceMin, c.PaceMax)
	}
	if c.Concurrency < 1 {
		return errors.New("concurrency must be at least 1")
	}
	if c.JSONReport && c.MarkdownReport {
		return errors.New("--json and --markdown are mutually exclusive")
	}
	if c.Sites == nil || len(c.Sites.Sites) == 0 {
		return errors.New("no sites configured")
	}
	for name, site := range c.Sites.Sites {
		if site.URL == "" {
			return fmt.Errorf("site %q has no url", name)
		}
	}
	return nil
}

// SnapshotPath returns the full path of the JSON snapshot file.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.DataDir, c.SnapshotFile)
}

// HistoryPath returns the full path of the CSV history file.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.DataDir, c.HistoryFile)
}

// --- environment helpers ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
