// Package log builds the slog loggers used by autocrawl.
//
// Loggers returned by NewLogger and NewJSONLogger wrap the standard slog
// handlers with a RedactingHandler, so request headers configured for a site
// (cookies, authorization tokens) and credentials embedded in URLs never
// reach the log output, even at debug level.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, slog.LevelInfo)
//	logger.Info("fetching page", "url", "https://user:pw@example.com/")
//	// url=https://example.com/
package log
