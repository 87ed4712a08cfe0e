package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/pricewatch/internal/model"
	"github.com/nao1215/pricewatch/internal/storage"
)

// TestNewHistoryCmd tests the history command creation.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "history" {
			t.Errorf("expected use 'history', got %q", cmd.Use)
		}
	})

	t.Run("has expected flags", func(t *testing.T) {
		t.Parallel()
		for _, flag := range []string{"site", "limit", "sites", "dir"} {
			if cmd.Flags().Lookup(flag) == nil {
				t.Errorf("expected %s flag", flag)
			}
		}
	})

	t.Run("limit defaults to 20", func(t *testing.T) {
		t.Parallel()
		if f := cmd.Flags().Lookup("limit"); f.DefValue != "20" {
			t.Errorf("expected default '20', got %q", f.DefValue)
		}
	})
}

// seedHistory creates a populated history database in a temp dir.
func seedHistory(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	db, err := storage.OpenHistoryDB(dir, storage.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	err = db.Insert(context.Background(), time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC), []model.ProductRecord{
		{Site: "amazon.it", Title: "Widget", Price: "€45.99", URL: "https://www.amazon.it/dp/TEST/"},
		{Site: "teknozone.it", Title: "Widget", Price: "€52.00", URL: "https://www.teknozone.it/test"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

// TestRunHistoryCmd tests the history command execution.
func TestRunHistoryCmd(t *testing.T) {
	t.Parallel()

	t.Run("errors without a database", func(t *testing.T) {
		t.Parallel()

		root := NewRootCmd()
		root.SetArgs([]string{"history", "-d", t.TempDir()})
		if err := root.Execute(); err == nil {
			t.Error("expected error when no history exists")
		}
	})

	t.Run("prints observations", func(t *testing.T) {
		t.Parallel()

		dir := seedHistory(t)

		var buf bytes.Buffer
		root := NewRootCmd()
		root.SetOut(&buf)
		root.SetArgs([]string{"history", "-d", dir})
		if err := root.Execute(); err != nil {
			t.Fatalf("history failed: %v", err)
		}

		out := buf.String()
		for _, want := range []string{"TIMESTAMP", "amazon.it", "€45.99", "teknozone.it"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("filters by site", func(t *testing.T) {
		t.Parallel()

		dir := seedHistory(t)

		var buf bytes.Buffer
		root := NewRootCmd()
		root.SetOut(&buf)
		root.SetArgs([]string{"history", "-d", dir, "--site", "amazon.it"})
		if err := root.Execute(); err != nil {
			t.Fatalf("history failed: %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, "amazon.it") {
			t.Errorf("filtered site missing:\n%s", out)
		}
		if strings.Contains(out, "teknozone.it") {
			t.Errorf("other site leaked into filtered output:\n%s", out)
		}
	})

	t.Run("lists sites", func(t *testing.T) {
		t.Parallel()

		dir := seedHistory(t)

		var buf bytes.Buffer
		root := NewRootCmd()
		root.SetOut(&buf)
		root.SetArgs([]string{"history", "-d", dir, "--sites"})
		if err := root.Execute(); err != nil {
			t.Fatalf("history failed: %v", err)
		}

		out := strings.TrimSpace(buf.String())
		if out != "amazon.it\nteknozone.it" {
			t.Errorf("unexpected site list:\n%s", out)
		}
	})
}
