package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/autocrawl/autocrawl/internal/cache"
	"github.com/autocrawl/autocrawl/internal/fetcher"
	"github.com/autocrawl/autocrawl/internal/report"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "autocrawl"

	// DefaultCacheDir is the page cache directory, relative to the working
	// directory.
	DefaultCacheDir = "./" + cache.DefaultDir

	// DefaultCacheTTL is how long a cached page is served.
	DefaultCacheTTL = cache.DefaultTTL

	// DefaultTimeout bounds a single fetch attempt.
	DefaultTimeout = fetcher.DefaultTimeout

	// DefaultMaxRetries is the number of retries after a timed-out fetch.
	DefaultMaxRetries = fetcher.DefaultMaxRetries

	// DefaultRetryDelay is the pause before each retry.
	DefaultRetryDelay = fetcher.DefaultRetryDelay

	// DefaultMaxPages stops a crawl whose pagination never ends.
	DefaultMaxPages = 500

	// DefaultFormat is the output format.
	DefaultFormat = string(report.FormatCSV)
)

// Config holds all options of a crawl.
// It is populated from defaults, then the config file, then CLI flags, and
// passed through the application rather than kept in global state.
type Config struct {
	// StartURL is the first search-results page.
	StartURL string

	// CacheDir is the page cache directory.
	CacheDir string

	// CacheTTL is how long a cached page is served before it is refetched.
	CacheTTL time.Duration

	// NoCache disables the page cache entirely.
	NoCache bool

	// Timeout bounds each fetch attempt.
	Timeout time.Duration

	// MaxRetries is the number of retries after a timed-out fetch.
	MaxRetries int

	// RetryDelay is the pause before each retry.
	RetryDelay time.Duration

	// MaxPages stops the crawl with an error once exceeded. 0 means no limit.
	MaxPages int

	// Delay is the pause after each page fetched from the network.
	Delay time.Duration

	// UserAgent is the User-Agent header. Empty means the CLI default.
	UserAgent string

	// Headers are extra request headers.
	Headers map[string]string

	// Robots enables the robots.txt check.
	Robots bool

	// Lenient keeps listings whose title has no leading year.
	Lenient bool

	// Format is the output format name.
	Format string

	// OutputFile is where the report is written. Empty means stdout.
	OutputFile string

	// DBDir is the directory of the crawl history database.
	// Defaults to the XDG data directory (~/.local/share/autocrawl on Linux).
	DBDir string

	// SaveHistory records finished crawls in the history database.
	SaveHistory bool

	// ConfigFilePath is the explicit configuration file path, if any.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		CacheDir:    DefaultCacheDir,
		CacheTTL:    DefaultCacheTTL,
		Timeout:     DefaultTimeout,
		MaxRetries:  DefaultMaxRetries,
		RetryDelay:  DefaultRetryDelay,
		MaxPages:    DefaultMaxPages,
		Format:      DefaultFormat,
		Headers:     make(map[string]string),
		DBDir:       XDGDataDir(),
		SaveHistory: true,
	}
}

// XDGDataDir returns the XDG data directory for autocrawl.
// On Linux: ~/.local/share/autocrawl
// On macOS: ~/Library/Application Support/autocrawl
// On Windows: %LOCALAPPDATA%\autocrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for autocrawl.
// On Linux: ~/.config/autocrawl
// On macOS: ~/Library/Application Support/autocrawl
// On Windows: %APPDATA%\autocrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Apply overrides the fields that s sets.
func (c *Config) Apply(s Settings) {
	if s.CacheDir != "" {
		c.CacheDir = s.CacheDir
	}
	if s.CacheTTL != nil {
		c.CacheTTL = *s.CacheTTL
	}
	if s.Timeout != nil {
		c.Timeout = *s.Timeout
	}
	if s.Retries != nil {
		c.MaxRetries = *s.Retries
	}
	if s.RetryDelay != nil {
		c.RetryDelay = *s.RetryDelay
	}
	if s.MaxPages != nil {
		c.MaxPages = *s.MaxPages
	}
	if s.Delay != nil {
		c.Delay = *s.Delay
	}
	if s.UserAgent != "" {
		c.UserAgent = s.UserAgent
	}
	if s.Format != "" {
		c.Format = s.Format
	}
	if s.Robots != nil {
		c.Robots = *s.Robots
	}
	if s.Lenient != nil {
		c.Lenient = *s.Lenient
	}
	if s.History != nil {
		c.SaveHistory = *s.History
	}
	if len(s.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string)
		}
		for k, v := range s.Headers {
			c.Headers[k] = v
		}
	}
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.StartURL == "" {
		return ErrNoStartURL
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}

	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}

	if c.Delay < 0 || c.RetryDelay < 0 {
		return ErrInvalidDelay
	}

	if !c.NoCache && c.CacheTTL <= 0 {
		return ErrInvalidCacheTTL
	}

	if _, err := report.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, c.Format)
	}

	return nil
}

// OutputFormat returns the parsed output format.
func (c *Config) OutputFormat() (report.Format, error) {
	f, err := report.ParseFormat(c.Format)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, c.Format)
	}
	return f, nil
}
