package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	applog "github.com/autocrawl/autocrawl/internal/log"
)

// NewRootCmd creates the root command for autocrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autocrawl",
		Short: "Crawl paginated listing searches into tabular data",
		Long: `autocrawl crawls a paginated search-results listing, extracts the
vehicle listings on every page and writes them out as CSV, text, Markdown
or JSON.

Pages are cached in ./cache for one hour, so running the same search again
within the hour does not touch the network.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Only log warnings and errors")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewCacheCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command. SIGINT and SIGTERM cancel the running
// command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// newLogger builds the logger selected by the global flags. Logs go to the
// command's stderr so that stdout carries only the report.
func newLogger(cmd *cobra.Command) *slog.Logger {
	flags := cmd.Root().PersistentFlags()
	verbose, _ := flags.GetBool("verbose")
	quiet, _ := flags.GetBool("quiet")
	jsonLogs, _ := flags.GetBool("log-json")

	level := applog.Level(verbose, quiet)
	if jsonLogs {
		return applog.NewJSONLogger(cmd.ErrOrStderr(), level)
	}
	return applog.NewLogger(cmd.ErrOrStderr(), level)
}
