package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autocrawl/autocrawl/internal/cache"
	"github.com/autocrawl/autocrawl/internal/config"
)

// NewCacheCmd creates the cache command and its subcommands.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the page cache",
		Long: `Cache reports on and cleans the on-disk page cache.

Each cached page is a file named after the SHA-256 of its URL. Entries older
than the cache TTL are no longer served but stay on disk until cleared or
overwritten.`,
	}

	cmd.PersistentFlags().String("cache-dir", config.DefaultCacheDir, "Page cache directory")
	cmd.PersistentFlags().Duration("cache-ttl", config.DefaultCacheTTL, "Age after which an entry counts as expired")

	cmd.AddCommand(newCacheStatsCmd())
	cmd.AddCommand(newCacheClearCmd())

	return cmd
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the number and size of cached pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := openCache(cmd)
			if err != nil {
				return err
			}

			stats, err := c.Stats()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Directory: %s\n", c.Dir())
			fmt.Fprintf(out, "Entries:   %d (%d expired)\n", stats.Entries, stats.Expired)
			fmt.Fprintf(out, "Size:      %d bytes\n", stats.Bytes)
			return nil
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			expiredOnly, err := cmd.Flags().GetBool("expired")
			if err != nil {
				return err
			}

			c, err := openCache(cmd)
			if err != nil {
				return err
			}

			removed, err := c.Clear(expiredOnly)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached page(s) from %s\n", removed, c.Dir())
			return nil
		},
	}

	cmd.Flags().Bool("expired", false, "Only remove entries older than the cache TTL")

	return cmd
}

// openCache builds the cache selected by the cache command's flags.
func openCache(cmd *cobra.Command) (*cache.FileCache, error) {
	dir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return nil, err
	}
	ttl, err := cmd.Flags().GetDuration("cache-ttl")
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		return nil, config.ErrInvalidCacheTTL
	}

	return cache.New(dir, cache.WithTTL(ttl), cache.WithLogger(newLogger(cmd))), nil
}
