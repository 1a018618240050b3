package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/autocrawl/autocrawl/internal/database"
	"github.com/autocrawl/autocrawl/internal/model"
)

// seedHistory saves one crawl per start URL into a new database in dbDir.
func seedHistory(t *testing.T, dbDir string, startURLs ...string) {
	t.Helper()

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	started := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, u := range startURLs {
		result := model.NewCrawlResult(u)
		result.StartedAt = started.Add(time.Duration(i) * time.Minute)
		result.FinishedAt = result.StartedAt.Add(time.Second)
		result.Pages = 1
		result.Listings = append(result.Listings, model.Listing{
			Title: "2015 Subaru Outback",
			URL:   "https://www.example.com/cars/details/1/",
			Year:  2015,
			Price: 12990,
			State: "VIC",
		})
		if _, err := db.SaveCrawl(context.Background(), result); err != nil {
			t.Fatalf("SaveCrawl() error = %v", err)
		}
	}
}

// TestHistoryCommand tests listing and printing saved crawls.
func TestHistoryCommand(t *testing.T) {
	t.Parallel()

	t.Run("empty history", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := executeRoot(t, "history", "--db-dir", t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stdout != "No crawls recorded yet.\n" {
			t.Errorf("unexpected output %q", stdout)
		}
	})

	t.Run("show without history", func(t *testing.T) {
		t.Parallel()

		if _, _, err := executeRoot(t, "history", "--db-dir", t.TempDir(), "--show", "1"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("lists crawls filtered by start URL", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		seedHistory(t, dbDir,
			"https://www.example.com/cars/results?q=outback",
			"https://www.example.com/cars/results?q=forester",
		)

		all, _, err := executeRoot(t, "history", "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(all, "q=outback") || !strings.Contains(all, "q=forester") {
			t.Errorf("expected both crawls, got:\n%s", all)
		}
		if strings.Index(all, "q=forester") > strings.Index(all, "q=outback") {
			t.Errorf("expected newest crawl first, got:\n%s", all)
		}

		filtered, _, err := executeRoot(t, "history", "--db-dir", dbDir,
			"https://www.example.com/cars/results?q=forester")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(filtered, "q=outback") {
			t.Errorf("expected only forester crawls, got:\n%s", filtered)
		}
	})

	t.Run("show prints a saved crawl", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		seedHistory(t, dbDir, "https://www.example.com/cars/results?q=outback")

		stdout, _, err := executeRoot(t, "history", "--db-dir", dbDir, "--show", "1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "Odometer,Price,Year,State,Title,URL\n" +
			`,12990,2015,VIC,"2015 Subaru Outback","https://www.example.com/cars/details/1/"` + "\n"
		if stdout != want {
			t.Errorf("unexpected output:\ngot:\n%s\nwant:\n%s", stdout, want)
		}

		if _, _, err := executeRoot(t, "history", "--db-dir", dbDir, "--show", "42"); err == nil {
			t.Error("expected error for unknown crawl ID")
		}
	})
}

// TestPrintHistory tests the history table layout.
func TestPrintHistory(t *testing.T) {
	t.Parallel()

	t.Run("no crawls", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		printHistory(&buf, nil)
		if buf.String() != "No crawls recorded yet.\n" {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("one row per crawl", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		printHistory(&buf, []database.CrawlSummary{
			{ID: 2, StartURL: "https://a.example/results", Pages: 3, CacheHits: 1, Listings: 70},
			{ID: 1, StartURL: "https://b.example/results", Pages: 1, Listings: 4},
		})

		output := buf.String()
		for _, want := range []string{"START URL", "LISTINGS", "https://a.example/results", "https://b.example/results"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
		if strings.Index(output, "a.example") > strings.Index(output, "b.example") {
			t.Errorf("expected input order to be kept, got:\n%s", output)
		}
	})
}
