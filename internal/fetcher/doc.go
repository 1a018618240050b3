// Package fetcher retrieves pages over HTTP with a bounded retry policy.
//
// A Fetcher performs a single GET per attempt with a fixed per-attempt
// timeout. Only timeout-class failures are retried; every other transport
// error, and every response whose status is not exactly 200 OK, fails the
// fetch at once. Serving an error page as if it were a results page would
// silently corrupt the crawl, so non-200 responses are never accepted.
//
// The Fetcher knows nothing about caching; see the crawler package for the
// cache-first page source built on top of it.
package fetcher
