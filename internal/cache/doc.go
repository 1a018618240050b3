// Package cache implements the on-disk page cache.
//
// Each cached page is a single file named after the lower-case hex SHA-256
// of the requested URL; the file content is the raw response body and the
// file's modification time is the cache timestamp. An entry older than the
// cache TTL is treated as absent but is left on disk until it is overwritten
// or removed by Clear.
//
// Design decision: We use a flat content-addressed directory rather than an
// embedded key-value store because:
//  1. Entries can be inspected and removed with ordinary shell tools
//  2. The filesystem already provides the timestamp we expire on
//  3. A single crawl never needs more than a lookup and a wholesale write
package cache
