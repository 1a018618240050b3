package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultDir is the cache directory, relative to the working directory.
	DefaultDir = "cache"

	// DefaultTTL is how long a cached page stays fresh.
	DefaultTTL = time.Hour

	// tempPrefix marks in-flight writes; Stats and Clear skip them.
	tempPrefix = ".tmp-"
)

// FileCache is a content-addressed page cache stored in a directory.
// It is safe for use by one crawl at a time; concurrent writers of the
// same entry race, with the last rename winning.
type FileCache struct {
	// dir is the directory holding cache files.
	dir string

	// ttl is the maximum age of a fresh entry.
	ttl time.Duration

	// now returns the current time. Replaced in tests.
	now func() time.Time

	// logger receives warnings about unexpected I/O errors.
	logger *slog.Logger
}

// Option configures a FileCache.
type Option func(*FileCache)

// WithTTL sets the time-to-live of cache entries.
func WithTTL(ttl time.Duration) Option {
	return func(c *FileCache) {
		c.ttl = ttl
	}
}

// WithClock replaces the clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *FileCache) {
		c.now = now
	}
}

// WithLogger sets the logger for cache warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *FileCache) {
		c.logger = logger
	}
}

// New creates a FileCache rooted at dir. The directory is created lazily
// on the first Store.
func New(dir string, opts ...Option) *FileCache {
	c := &FileCache{
		dir: dir,
		ttl: DefaultTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string {
	return c.dir
}

// Key returns the content address of rawURL: the lower-case hex SHA-256 of
// the URL string exactly as given.
func Key(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

// Path returns the file that holds the entry for rawURL.
func (c *FileCache) Path(rawURL string) string {
	return filepath.Join(c.dir, Key(rawURL))
}

// Lookup returns the cached body for rawURL.
// The second result is false when there is no entry, the entry is at least
// TTL old, or the entry cannot be read; a missing file is a plain miss and
// any other error is logged.
func (c *FileCache) Lookup(rawURL string) ([]byte, bool) {
	path := c.Path(rawURL)

	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("cache lookup failed", "url", rawURL, "error", err)
		}
		return nil, false
	}

	if c.expired(info) {
		c.logger.Debug("cache entry expired", "url", rawURL, "age", c.now().Sub(info.ModTime()).Round(time.Second))
		return nil, false
	}

	body, err := os.ReadFile(path) //nolint:gosec // path is derived from a hash
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("cache read failed", "url", rawURL, "error", err)
		}
		return nil, false
	}

	return body, true
}

// expired reports whether an entry with the given file info is stale.
func (c *FileCache) expired(info fs.FileInfo) bool {
	return c.now().Sub(info.ModTime()) >= c.ttl
}

// Store writes body as the entry for rawURL, replacing any previous entry.
//
// The body is written to a temporary file and renamed into place, so a
// reader never sees a partial entry. A missing cache directory is created
// on demand; a directory created concurrently by someone else is fine.
func (c *FileCache) Store(rawURL string, body []byte) error {
	err := c.writeEntry(rawURL, body)
	if errors.Is(err, fs.ErrNotExist) {
		if mkErr := os.MkdirAll(c.dir, 0750); mkErr != nil {
			return fmt.Errorf("failed to create cache directory: %w", mkErr)
		}
		err = c.writeEntry(rawURL, body)
	}
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// writeEntry performs one write-and-rename attempt.
func (c *FileCache) writeEntry(rawURL string, body []byte) error {
	tmp, err := os.CreateTemp(c.dir, tempPrefix+"*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, c.Path(rawURL)); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// Stats describes the contents of the cache directory.
type Stats struct {
	// Entries is the number of cache files.
	Entries int

	// Expired is how many of them are older than the TTL.
	Expired int

	// Bytes is the total size of all entries.
	Bytes int64
}

// Stats scans the cache directory. A missing directory is an empty cache.
func (c *FileCache) Stats() (Stats, error) {
	var stats Stats
	err := c.walk(func(_ string, info fs.FileInfo) error {
		stats.Entries++
		stats.Bytes += info.Size()
		if c.expired(info) {
			stats.Expired++
		}
		return nil
	})
	return stats, err
}

// Clear removes cache entries and returns how many were removed.
// With expiredOnly set, fresh entries are kept.
func (c *FileCache) Clear(expiredOnly bool) (int, error) {
	removed := 0
	err := c.walk(func(path string, info fs.FileInfo) error {
		if expiredOnly && !c.expired(info) {
			return nil
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		removed++
		return nil
	})
	return removed, err
}

// walk calls fn for every regular cache file in the directory.
func (c *FileCache) walk(fn func(path string, info fs.FileInfo) error) error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		if err := fn(filepath.Join(c.dir, e.Name()), info); err != nil {
			return err
		}
	}
	return nil
}
