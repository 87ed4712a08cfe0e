package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/pricewatch/internal/model"
)

func TestWriteSnapshot(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "latest_prices.json")
		want := &model.Snapshot{
			LastUpdated: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
			Prices: []model.ProductRecord{
				{Site: "amazon.it", Title: "Widget", Price: "€45.99", URL: "https://www.amazon.it/dp/TEST/"},
				{Site: "teknozone.it", Title: "Widget", Price: model.PriceNotFound, URL: "https://www.teknozone.it/test"},
			},
		}

		if err := WriteSnapshot(path, want); err != nil {
			t.Fatalf("WriteSnapshot failed: %v", err)
		}

		got, err := ReadSnapshot(path)
		if err != nil {
			t.Fatalf("ReadSnapshot failed: %v", err)
		}
		if !got.LastUpdated.Equal(want.LastUpdated) {
			t.Errorf("LastUpdated = %v, want %v", got.LastUpdated, want.LastUpdated)
		}
		if len(got.Prices) != 2 || got.Prices[0] != want.Prices[0] || got.Prices[1] != want.Prices[1] {
			t.Errorf("Prices = %+v, want %+v", got.Prices, want.Prices)
		}
	})

	t.Run("creates missing directory", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "deeper", "latest_prices.json")
		if err := WriteSnapshot(path, &model.Snapshot{LastUpdated: time.Now()}); err != nil {
			t.Fatalf("WriteSnapshot failed: %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("snapshot not written: %v", err)
		}
	})

	t.Run("overwrites previous snapshot", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "latest_prices.json")
		first := &model.Snapshot{Prices: []model.ProductRecord{{Site: "a", Title: "old", Price: "€1.00", URL: "u"}}}
		second := &model.Snapshot{Prices: []model.ProductRecord{{Site: "b", Title: "new", Price: "€2.00", URL: "u"}}}

		if err := WriteSnapshot(path, first); err != nil {
			t.Fatal(err)
		}
		if err := WriteSnapshot(path, second); err != nil {
			t.Fatal(err)
		}

		got, err := ReadSnapshot(path)
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Prices) != 1 || got.Prices[0].Title != "new" {
			t.Errorf("snapshot not overwritten: %+v", got.Prices)
		}
	})

	t.Run("empty run still writes a prices array", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "latest_prices.json")
		if err := WriteSnapshot(path, &model.Snapshot{LastUpdated: time.Now()}); err != nil {
			t.Fatal(err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), `"prices": []`) {
			t.Errorf("expected empty prices array, got:\n%s", data)
		}
	})

	t.Run("uses snake_case keys", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "latest_prices.json")
		snap := &model.Snapshot{
			LastUpdated: time.Now(),
			Prices:      []model.ProductRecord{{Site: "amazon.it", Title: "Widget", Price: "€45.99", URL: "u"}},
		}
		if err := WriteSnapshot(path, snap); err != nil {
			t.Fatal(err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			t.Fatal(err)
		}
		if _, ok := raw["last_updated"]; !ok {
			t.Errorf("missing last_updated key: %s", data)
		}
		if _, ok := raw["prices"]; !ok {
			t.Errorf("missing prices key: %s", data)
		}
	})
}

func TestReadSnapshot(t *testing.T) {
	t.Parallel()

	t.Run("missing file yields empty snapshot", func(t *testing.T) {
		t.Parallel()

		got, err := ReadSnapshot(filepath.Join(t.TempDir(), "nope.json"))
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if !got.LastUpdated.IsZero() || len(got.Prices) != 0 {
			t.Errorf("expected empty snapshot, got %+v", got)
		}
	})

	t.Run("malformed file returns error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := ReadSnapshot(path); err == nil {
			t.Error("expected error for malformed snapshot")
		}
	})
}

func TestAppendHistory(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	records := []model.ProductRecord{
		{Site: "amazon.it", Title: "Widget", Price: "€45.99", URL: "https://www.amazon.it/dp/TEST/"},
	}

	t.Run("writes header on first use", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "price_history.csv")
		if err := AppendHistory(path, now, records); err != nil {
			t.Fatalf("AppendHistory failed: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected header plus one row, got %d lines: %q", len(lines), lines)
		}
		if lines[0] != "timestamp,site,title,price,url" {
			t.Errorf("unexpected header %q", lines[0])
		}
		if !strings.Contains(lines[1], "amazon.it") || !strings.Contains(lines[1], "€45.99") {
			t.Errorf("unexpected row %q", lines[1])
		}
	})

	t.Run("appends without duplicating header", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "price_history.csv")
		if err := AppendHistory(path, now, records); err != nil {
			t.Fatal(err)
		}
		if err := AppendHistory(path, now.Add(time.Hour), records); err != nil {
			t.Fatal(err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		content := string(data)
		if strings.Count(content, "timestamp,site,title,price,url") != 1 {
			t.Errorf("header duplicated:\n%s", content)
		}
		lines := strings.Split(strings.TrimSpace(content), "\n")
		if len(lines) != 3 {
			t.Errorf("expected 3 lines, got %d:\n%s", len(lines), content)
		}
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "price_history.csv")
		if err := AppendHistory(path, now, nil); err != nil {
			t.Fatalf("AppendHistory failed: %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("expected no file for empty batch")
		}
	})

	t.Run("quotes titles containing commas", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "price_history.csv")
		tricky := []model.ProductRecord{
			{Site: "amazon.it", Title: "Widget, Deluxe Edition", Price: "€45.99", URL: "u"},
		}
		if err := AppendHistory(path, now, tricky); err != nil {
			t.Fatal(err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), `"Widget, Deluxe Edition"`) {
			t.Errorf("comma title not quoted:\n%s", data)
		}
	})
}
