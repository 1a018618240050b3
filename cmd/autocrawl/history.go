package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/autocrawl/autocrawl/internal/config"
	"github.com/autocrawl/autocrawl/internal/database"
	"github.com/autocrawl/autocrawl/internal/report"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [start-url]",
		Short: "List past crawls or print a saved crawl",
		Long: `History lists the crawls recorded in the history database, newest first.
With a start URL only crawls of that search are listed.

Use --show to print the listings of one saved crawl in any output format.

Examples:
  # List all recorded crawls
  autocrawl history

  # Print crawl 12 as Markdown
  autocrawl history --show 12 -f markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64("show", 0, "Print the listings of the crawl with this ID")
	cmd.Flags().StringP("format", "f", config.DefaultFormat,
		"Output format for --show: csv, text, markdown or json")
	cmd.Flags().String("db-dir", "", "Directory of the history database (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	showID, err := cmd.Flags().GetInt64("show")
	if err != nil {
		return err
	}

	formatName, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if _, err := os.Stat(filepath.Join(dbDir, database.FileName)); os.IsNotExist(err) {
		if showID != 0 {
			return fmt.Errorf("crawl %d not found: no crawl history in %s", showID, dbDir)
		}
		fmt.Fprintln(out, "No crawls recorded yet.")
		return nil
	}

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()

	if showID != 0 {
		result, err := db.GetCrawl(ctx, showID)
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("crawl %d not found", showID)
		}

		w, err := report.NewWriter(format, out)
		if err != nil {
			return err
		}
		_, err = w.Write(result)
		return err
	}

	var startURL string
	if len(args) > 0 {
		startURL = args[0]
	}

	crawls, err := db.ListCrawls(ctx, startURL)
	if err != nil {
		return err
	}

	printHistory(out, crawls)
	return nil
}

// printHistory writes the crawls as a table, newest first.
func printHistory(out io.Writer, crawls []database.CrawlSummary) {
	if len(crawls) == 0 {
		fmt.Fprintln(out, "No crawls recorded yet.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Started", "Pages", "Cached", "Listings", "Start URL"})
	for _, c := range crawls {
		t.AppendRow(table.Row{
			c.ID,
			c.StartedAt.Local().Format("2006-01-02 15:04:05"),
			c.Pages,
			c.CacheHits,
			c.Listings,
			c.StartURL,
		})
	}
	t.Render()
}
