package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/pricewatch/internal/model"
)

// WriteSnapshot writes the snapshot as indented JSON to path,
// overwriting any previous snapshot. The prices field is always
// serialized as a JSON array, even on a run where every site failed.
// The parent directory is created if missing. The write goes through a
// temporary file in the same directory so a crash never leaves a
// truncated snapshot behind.
func WriteSnapshot(path string, snapshot *model.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	out := *snapshot
	if out.Prices == nil {
		out.Prices = []model.ProductRecord{}
	}

	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot loads a previously written snapshot. A missing file is
// not an error; it returns an empty snapshot so first runs need no
// special casing.
func ReadSnapshot(path string) (*model.Snapshot, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from user configuration
	if err != nil {
		if os.IsNotExist(err) {
			return &model.Snapshot{}, nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snapshot model.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return &snapshot, nil
}
