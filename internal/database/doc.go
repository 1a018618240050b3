// Package database provides SQLite-based storage for crawl history.
//
// This package implements the CrawlDB, which stores:
//   - One summary row per finished crawl
//   - The listings of each crawl in crawl order
//
// The history is a record of past crawls only. Pages are never served from
// it; the page cache is a separate flat file store.
//
// SQLite (via modernc.org/sqlite) keeps the history in a single file and
// needs no cgo.
package database
