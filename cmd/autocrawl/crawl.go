package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/autocrawl/autocrawl/internal/cache"
	"github.com/autocrawl/autocrawl/internal/config"
	"github.com/autocrawl/autocrawl/internal/crawler"
	"github.com/autocrawl/autocrawl/internal/database"
	"github.com/autocrawl/autocrawl/internal/extract"
	"github.com/autocrawl/autocrawl/internal/fetcher"
	"github.com/autocrawl/autocrawl/internal/model"
	"github.com/autocrawl/autocrawl/internal/report"
	"github.com/autocrawl/autocrawl/internal/robots"
)

// robotsAgent is the agent name matched against robots.txt groups.
const robotsAgent = "autocrawl"

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url|search]",
		Short: "Crawl a listing search and print every listing",
		Long: `Crawl starts at a search-results URL, extracts the listings on each page
and follows the "next page" link until there is none. The listings are
written to stdout (or --output) once the whole crawl has succeeded; a
failed crawl writes nothing.

The argument is either a search URL or the name of a search saved in the
configuration file.

Examples:
  # Crawl a search and print CSV
  autocrawl crawl 'https://www.carsales.com.au/cars/results?q=...'

  # Crawl a saved search as Markdown into a file
  autocrawl crawl outback -f markdown -o outback.md

  # Ignore the cache and respect robots.txt
  autocrawl crawl outback --no-cache --robots

Configuration file (.autocrawl.yaml) example:
  defaults:
    timeout: 30s
    maxPages: 200
  searches:
    outback:
      url: https://www.carsales.com.au/cars/results?q=...`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCrawlCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .autocrawl.yaml in current, XDG config or home directory)")

	// Output flags
	cmd.Flags().StringP("format", "f", config.DefaultFormat,
		"Output format: csv, text, markdown or json")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Cache flags
	cmd.Flags().String("cache-dir", config.DefaultCacheDir, "Page cache directory")
	cmd.Flags().Duration("cache-ttl", config.DefaultCacheTTL, "How long cached pages are served")
	cmd.Flags().Bool("no-cache", false, "Neither read nor write the page cache")

	// Fetch flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request attempt")
	cmd.Flags().IntP("retries", "r", config.DefaultMaxRetries,
		"Retries after a timed-out request")
	cmd.Flags().String("user-agent", "", "User-Agent header (default: autocrawl/<version>)")

	// Crawl flags
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Fail when the search has more pages than this (0 = no limit)")
	cmd.Flags().Duration("delay", 0, "Pause after each page fetched from the network")
	cmd.Flags().Bool("robots", false, "Check robots.txt before requesting each page")
	cmd.Flags().Bool("lenient", false, "Keep listings whose title has no leading year")

	// History flags
	cmd.Flags().Bool("no-history", false, "Do not record this crawl in the history database")
	cmd.Flags().String("db-dir", "", "Directory of the history database (default: XDG data directory)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	return runCrawl(cmd.Context(), cfg, cmd.OutOrStdout(), newLogger(cmd))
}

// buildConfig creates a Config from defaults, the configuration file and
// the flags that were set explicitly, in that order of precedence.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	var target string
	if len(args) > 0 {
		target = args[0]
	}

	// An explicit config path must exist; an implicit one is optional.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cf.ApplyTo(cfg, target)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	default:
		cfg.StartURL = target
	}

	if flags.Changed("format") {
		if cfg.Format, err = flags.GetString("format"); err != nil {
			return nil, err
		}
	}
	if cfg.OutputFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if flags.Changed("cache-dir") {
		if cfg.CacheDir, err = flags.GetString("cache-dir"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("cache-ttl") {
		if cfg.CacheTTL, err = flags.GetDuration("cache-ttl"); err != nil {
			return nil, err
		}
	}
	if cfg.NoCache, err = flags.GetBool("no-cache"); err != nil {
		return nil, err
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("retries") {
		if cfg.MaxRetries, err = flags.GetInt("retries"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-pages") {
		if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("delay") {
		if cfg.Delay, err = flags.GetDuration("delay"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("robots") {
		if cfg.Robots, err = flags.GetBool("robots"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("lenient") {
		if cfg.Lenient, err = flags.GetBool("lenient"); err != nil {
			return nil, err
		}
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	if noHistory {
		cfg.SaveHistory = false
	}
	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return nil, err
		}
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = userAgent()
	}

	return cfg, nil
}

// runCrawl performs the crawl described by cfg and writes the report.
func runCrawl(ctx context.Context, cfg *config.Config, stdout io.Writer, logger *slog.Logger) error {
	format, err := cfg.OutputFormat()
	if err != nil {
		return err
	}

	logger.Info("starting crawl",
		"url", cfg.StartURL,
		"cache", !cfg.NoCache,
		"maxPages", cfg.MaxPages,
		"robots", cfg.Robots,
	)

	driver := newDriver(cfg, logger)

	result, err := driver.Crawl(ctx, cfg.StartURL)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("crawl cancelled: %w", err)
		}
		return fmt.Errorf("crawl failed: %w", err)
	}

	logger.Info("crawl finished",
		"pages", result.Pages,
		"listings", len(result.Listings),
		"cacheHits", result.CacheHits,
		"duration", result.Duration().Round(time.Millisecond),
	)

	if err := outputReport(cfg, format, result, stdout); err != nil {
		return err
	}

	if cfg.SaveHistory {
		if err := saveCrawl(ctx, cfg.DBDir, result, logger); err != nil {
			logger.Warn("failed to save crawl history", "error", err)
		}
	}

	return nil
}

// newDriver wires the page cache, fetcher, extractor and robots gate
// selected by cfg into a crawl driver.
func newDriver(cfg *config.Config, logger *slog.Logger) *crawler.Driver {
	var pageCache crawler.PageCache
	if !cfg.NoCache {
		pageCache = cache.New(cfg.CacheDir,
			cache.WithTTL(cfg.CacheTTL),
			cache.WithLogger(logger),
		)
	}

	f := fetcher.New(
		fetcher.WithTimeout(cfg.Timeout),
		fetcher.WithMaxRetries(cfg.MaxRetries),
		fetcher.WithRetryDelay(cfg.RetryDelay),
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithHeaders(cfg.Headers),
		fetcher.WithLogger(logger),
	)

	source := crawler.NewSource(f, pageCache, logger)

	var extractOpts []extract.Option
	if cfg.Lenient {
		extractOpts = append(extractOpts, extract.WithLenientYear())
	}

	driverOpts := []crawler.DriverOption{
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithDelay(cfg.Delay),
		crawler.WithDriverLogger(logger),
	}
	if cfg.Robots {
		driverOpts = append(driverOpts, crawler.WithRobots(robots.New(source, robotsAgent)))
	}

	return crawler.NewDriver(source, extract.NewCarsales(extractOpts...), driverOpts...)
}

// outputReport writes the report to cfg.OutputFile, or stdout when unset.
func outputReport(cfg *config.Config, format report.Format, result *model.CrawlResult, stdout io.Writer) error {
	output := stdout

	if cfg.OutputFile != "" {
		dir := filepath.Dir(cfg.OutputFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		file, err := os.Create(cfg.OutputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()

		output = file
	}

	w, err := report.NewWriter(format, output)
	if err != nil {
		return err
	}

	if _, err := w.Write(result); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

// saveCrawl records result in the history database in dbDir.
func saveCrawl(ctx context.Context, dbDir string, result *model.CrawlResult, logger *slog.Logger) error {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	id, err := db.SaveCrawl(ctx, result)
	if err != nil {
		return err
	}

	logger.Info("crawl saved to history", "id", id, "db", db.Path())
	return nil
}
