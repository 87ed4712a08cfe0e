package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/pricewatch/internal/model"
)

// historyHeader is the CSV column layout. Existing files are assumed
// to carry it already; the header is written only when the file is new.
var historyHeader = []string{"timestamp", "site", "title", "price", "url"}

// AppendHistory appends one row per record to the CSV history file at
// path, creating the file (with header) and its directory on first
// use. All rows of a run share the same timestamp.
func AppendHistory(path string, at time.Time, records []model.ProductRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	info, err := os.Stat(path)
	writeHeader := os.IsNotExist(err) || (err == nil && info.Size() == 0)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to check history file: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640) //nolint:gosec // path comes from user configuration
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close() //nolint:errcheck // best-effort close after explicit Flush

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(historyHeader); err != nil {
			return fmt.Errorf("failed to write history header: %w", err)
		}
	}

	timestamp := at.Format(time.RFC3339)
	for _, r := range records {
		row := []string{timestamp, r.Site, r.Title, r.Price, r.URL}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write history row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush history file: %w", err)
	}
	return nil
}
