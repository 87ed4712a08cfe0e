package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/pricewatch/internal/model"
)

// HistoryDBFile is the filename of the SQLite history database inside
// the data directory.
const HistoryDBFile = "pricewatch.db"

// HistoryDB provides SQLite-based storage for price observations.
// Each tracking run inserts one row per site, so the table grows into
// a price-over-time series queryable by the history subcommand.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// OpenHistoryDB opens or creates the history database in dataDir.
// With CreateIfNotExists false, a missing database is an error; the
// history subcommand uses this so it never creates an empty database
// just to report that there is no history.
func OpenHistoryDB(dataDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dataDir, HistoryDBFile)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("history database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dataDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS price_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site TEXT NOT NULL,
		title TEXT NOT NULL,
		price TEXT NOT NULL,
		url TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_history_site ON price_history(site);
	CREATE INDEX IF NOT EXISTS idx_history_timestamp ON price_history(timestamp);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// Observation is one stored price reading.
type Observation struct {
	ID        int64
	Site      string
	Title     string
	Price     string
	URL       string
	Timestamp time.Time
}

// Insert stores one observation per record at the given time.
// Records are stored verbatim, sentinels included, so the history also
// documents when a site stopped yielding a price.
func (hdb *HistoryDB) Insert(ctx context.Context, at time.Time, records []model.ProductRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	query := `
	INSERT INTO price_history (site, title, price, url, timestamp)
	VALUES (?, ?, ?, ?, ?)
	`
	timestamp := at.UTC().Format("2006-01-02 15:04:05")
	for _, r := range records {
		if _, err := tx.ExecContext(ctx, query, r.Site, r.Title, r.Price, r.URL, timestamp); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert observation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit observations: %w", err)
	}
	return nil
}

// History returns observations most recent first. With a non-empty
// site the result is filtered to that site; limit > 0 caps the number
// of rows.
func (hdb *HistoryDB) History(ctx context.Context, site string, limit int) ([]Observation, error) {
	query := `
	SELECT id, site, title, price, url, timestamp
	FROM price_history
	WHERE 1=1
	`
	args := make([]any, 0, 2)

	if site != "" {
		query += " AND site = ?"
		args = append(args, site)
	}

	query += " ORDER BY timestamp DESC, id DESC"

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var results []Observation
	for rows.Next() {
		var obs Observation
		var timestamp string

		if err := rows.Scan(&obs.ID, &obs.Site, &obs.Title, &obs.Price, &obs.URL, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}

		obs.Timestamp = parseTimestamp(timestamp)
		results = append(results, obs)
	}

	return results, rows.Err()
}

// Sites returns the distinct site names present in the history,
// sorted.
func (hdb *HistoryDB) Sites(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT site FROM price_history
	ORDER BY site
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}

	return sites, rows.Err()
}

// Latest returns the most recent observation for a site, or nil when
// the site has no history.
func (hdb *HistoryDB) Latest(ctx context.Context, site string) (*Observation, error) {
	query := `
	SELECT id, site, title, price, url, timestamp
	FROM price_history
	WHERE site = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	var obs Observation
	var timestamp string

	err := hdb.db.QueryRowContext(ctx, query, site).Scan(
		&obs.ID, &obs.Site, &obs.Title, &obs.Price, &obs.URL, &timestamp,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest observation: %w", err)
	}

	obs.Timestamp = parseTimestamp(timestamp)
	return &obs, nil
}

// timestampFormats contains the timestamp formats that SQLite may
// return. The order matters: more specific formats come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. SQLite may return timestamps in different formats depending
// on configuration. If parsing fails with all formats, returns zero
// time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
