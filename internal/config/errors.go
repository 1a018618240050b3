package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and allow callers to use
// errors.Is() for programmatic error handling.
var (
	// ErrNoStartURL is returned when neither a URL nor a named search is given.
	ErrNoStartURL = errors.New("no start URL specified: provide a search URL or a named search")

	// ErrInvalidTimeout is returned when the per-attempt timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxRetries is returned when the retry count is negative.
	ErrInvalidMaxRetries = errors.New("invalid retries: must be non-negative")

	// ErrInvalidMaxPages is returned when the page limit is negative.
	// Use 0 for no limit.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidDelay is returned when the crawl delay or retry delay is negative.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidCacheTTL is returned when caching is enabled with a TTL that
	// is not positive.
	ErrInvalidCacheTTL = errors.New("invalid cache TTL: must be positive")

	// ErrUnknownFormat is returned for an unsupported output format.
	ErrUnknownFormat = errors.New("unknown output format")
)
