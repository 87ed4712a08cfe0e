package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/pricewatch/internal/config"
	"github.com/nao1215/pricewatch/internal/model"
	"github.com/nao1215/pricewatch/internal/storage"
)

// TestNewTrackCmd tests the track command creation.
func TestNewTrackCmd(t *testing.T) {
	t.Parallel()

	cmd := NewTrackCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "track" {
			t.Errorf("expected use 'track', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has expected flags", func(t *testing.T) {
		t.Parallel()
		for flag, shorthand := range map[string]string{
			"timeout":     "t",
			"retries":     "r",
			"concurrency": "n",
			"proxy":       "p",
			"config":      "c",
			"dir":         "d",
			"json":        "j",
			"markdown":    "m",
			"output":      "o",
		} {
			f := cmd.Flags().Lookup(flag)
			if f == nil {
				t.Errorf("expected %s flag", flag)
				continue
			}
			if f.Shorthand != shorthand {
				t.Errorf("flag %s: expected shorthand %q, got %q", flag, shorthand, f.Shorthand)
			}
		}
	})

	t.Run("timeout default matches config", func(t *testing.T) {
		t.Parallel()
		f := cmd.Flags().Lookup("timeout")
		if f.DefValue != config.DefaultTimeout.String() {
			t.Errorf("expected default %q, got %q", config.DefaultTimeout, f.DefValue)
		}
	})
}

// TestBuildConfig tests config construction from flags.
func TestBuildConfig(t *testing.T) {
	t.Run("flag values override defaults", func(t *testing.T) {
		cmd := NewTrackCmd()
		cmd.SetArgs([]string{})
		if err := cmd.Flags().Set("timeout", "30s"); err != nil {
			t.Fatal(err)
		}
		if err := cmd.Flags().Set("retries", "5"); err != nil {
			t.Fatal(err)
		}
		if err := cmd.Flags().Set("dir", "/tmp/pw"); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd)
		if err != nil {
			t.Fatalf("buildConfig failed: %v", err)
		}
		if cfg.Timeout != 30*time.Second {
			t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
		}
		if cfg.MaxAttempts != 5 {
			t.Errorf("MaxAttempts = %d, want 5", cfg.MaxAttempts)
		}
		if cfg.DataDir != "/tmp/pw" {
			t.Errorf("DataDir = %q, want /tmp/pw", cfg.DataDir)
		}
	})

	t.Run("missing explicit config file is an error", func(t *testing.T) {
		cmd := NewTrackCmd()
		if err := cmd.Flags().Set("config", filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
			t.Fatal(err)
		}
		if _, err := buildConfig(cmd); err == nil {
			t.Error("expected error for missing explicit config file")
		}
	})

	t.Run("config file sites are loaded", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "conf.yaml")
		content := "sites:\n  shop.example:\n    url: https://shop.example/p\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cmd := NewTrackCmd()
		if err := cmd.Flags().Set("config", path); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd)
		if err != nil {
			t.Fatalf("buildConfig failed: %v", err)
		}
		if _, ok := cfg.Sites.Sites["shop.example"]; !ok {
			t.Errorf("config file sites not loaded: %v", cfg.Sites.Sites)
		}
	})

	t.Run("defaults to built-in sites", func(t *testing.T) {
		// Run from a directory without a .pricewatch file.
		t.Chdir(t.TempDir())

		cmd := NewTrackCmd()
		cfg, err := buildConfig(cmd)
		if err != nil {
			t.Fatalf("buildConfig failed: %v", err)
		}
		if _, ok := cfg.Sites.Sites["amazon.it"]; !ok {
			t.Errorf("expected built-in sites, got %v", cfg.Sites.Sites)
		}
	})
}

// TestTrackEndToEnd runs the track command against a local server and
// verifies report and persistence outputs.
func TestTrackEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Widget 128GB | Shop</title></head><body><h1>Widget 128GB</h1><span>a soli €45,99</span></body></html>`))
	}))
	defer srv.Close()

	dataDir := t.TempDir()
	confPath := filepath.Join(t.TempDir(), "conf.yaml")
	conf := fmt.Sprintf("sites:\n  shop.example:\n    url: %s\n", srv.URL)
	if err := os.WriteFile(confPath, []byte(conf), 0600); err != nil {
		t.Fatal(err)
	}

	reportPath := filepath.Join(t.TempDir(), "report.json")

	root := NewRootCmd()
	root.SetArgs([]string{"track",
		"-c", confPath,
		"-d", dataDir,
		"--json",
		"-o", reportPath,
	})
	if err := root.Execute(); err != nil {
		t.Fatalf("track failed: %v", err)
	}

	t.Run("json report written", func(t *testing.T) {
		data, err := os.ReadFile(reportPath)
		if err != nil {
			t.Fatalf("report not written: %v", err)
		}
		var decoded struct {
			Prices []model.ProductRecord `json:"prices"`
		}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("report is not valid JSON: %v", err)
		}
		if len(decoded.Prices) != 1 {
			t.Fatalf("expected 1 record, got %d", len(decoded.Prices))
		}
		rec := decoded.Prices[0]
		if rec.Site != "shop.example" || rec.Title != "Widget 128GB" || rec.Price != "€45.99" {
			t.Errorf("unexpected record: %+v", rec)
		}
	})

	t.Run("snapshot written", func(t *testing.T) {
		snap, err := storage.ReadSnapshot(filepath.Join(dataDir, config.DefaultSnapshotFile))
		if err != nil {
			t.Fatalf("snapshot not readable: %v", err)
		}
		if len(snap.Prices) != 1 || snap.Prices[0].Price != "€45.99" {
			t.Errorf("unexpected snapshot: %+v", snap)
		}
		if snap.LastUpdated.IsZero() {
			t.Error("snapshot missing last_updated")
		}
	})

	t.Run("csv history appended", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(dataDir, config.DefaultHistoryFile))
		if err != nil {
			t.Fatalf("history not written: %v", err)
		}
		if got := string(data); !containsAll(got, "timestamp,site,title,price,url", "shop.example", "€45.99") {
			t.Errorf("unexpected history contents:\n%s", got)
		}
	})

	t.Run("database populated", func(t *testing.T) {
		db, err := storage.OpenHistoryDB(dataDir, storage.Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("database not created: %v", err)
		}
		defer db.Close()

		obs, err := db.History(t.Context(), "shop.example", 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(obs) != 1 || obs[0].Price != "€45.99" {
			t.Errorf("unexpected observations: %+v", obs)
		}
	})
}

// TestTrackExcludesFailedSites verifies that a site whose fetch fails
// leaves no trace in the persisted data, only an entry in the report's
// error map.
func TestTrackExcludesFailedSites(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><h1>Widget</h1><span>€45,99</span></body></html>`))
	}))
	defer healthy.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer broken.Close()

	dataDir := t.TempDir()
	confPath := filepath.Join(t.TempDir(), "conf.yaml")
	conf := fmt.Sprintf("sites:\n  broken.example:\n    url: %s\n  healthy.example:\n    url: %s\n", broken.URL, healthy.URL)
	if err := os.WriteFile(confPath, []byte(conf), 0600); err != nil {
		t.Fatal(err)
	}

	reportPath := filepath.Join(t.TempDir(), "report.json")

	root := NewRootCmd()
	root.SetArgs([]string{"track",
		"-c", confPath,
		"-d", dataDir,
		"--json",
		"-o", reportPath,
	})
	if err := root.Execute(); err != nil {
		t.Fatalf("track failed: %v", err)
	}

	t.Run("snapshot holds only the healthy site", func(t *testing.T) {
		snap, err := storage.ReadSnapshot(filepath.Join(dataDir, config.DefaultSnapshotFile))
		if err != nil {
			t.Fatalf("snapshot not readable: %v", err)
		}
		if len(snap.Prices) != 1 {
			t.Fatalf("expected 1 record, got %+v", snap.Prices)
		}
		if snap.Prices[0].Site != "healthy.example" {
			t.Errorf("unexpected record: %+v", snap.Prices[0])
		}
	})

	t.Run("csv history skips the failed site", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(dataDir, config.DefaultHistoryFile))
		if err != nil {
			t.Fatalf("history not written: %v", err)
		}
		if strings.Contains(string(data), "broken.example") {
			t.Errorf("failed site leaked into history:\n%s", data)
		}
	})

	t.Run("database skips the failed site", func(t *testing.T) {
		db, err := storage.OpenHistoryDB(dataDir, storage.Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()

		obs, err := db.History(t.Context(), "broken.example", 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(obs) != 0 {
			t.Errorf("failed site leaked into database: %+v", obs)
		}
	})

	t.Run("report still surfaces the failure", func(t *testing.T) {
		data, err := os.ReadFile(reportPath)
		if err != nil {
			t.Fatal(err)
		}
		var decoded struct {
			Errors map[string]string `json:"errors"`
		}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatal(err)
		}
		if decoded.Errors["broken.example"] == "" {
			t.Errorf("failure missing from report: %v", decoded.Errors)
		}
	})
}

// TestTrackAllSitesFailing verifies the snapshot keeps its array shape
// when no site produced a record.
func TestTrackAllSitesFailing(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer broken.Close()

	dataDir := t.TempDir()
	confPath := filepath.Join(t.TempDir(), "conf.yaml")
	conf := fmt.Sprintf("sites:\n  broken.example:\n    url: %s\n", broken.URL)
	if err := os.WriteFile(confPath, []byte(conf), 0600); err != nil {
		t.Fatal(err)
	}

	root := NewRootCmd()
	root.SetArgs([]string{"track", "-c", confPath, "-d", dataDir, "-o", filepath.Join(dataDir, "report.txt")})
	if err := root.Execute(); err != nil {
		t.Fatalf("track failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dataDir, config.DefaultSnapshotFile))
	if err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
	if !strings.Contains(string(data), `"prices": []`) {
		t.Errorf("expected empty prices array, got:\n%s", data)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
