// Package report renders crawl results.
//
// This package contains writers for different output formats:
//   - CSVWriter: one row per listing, the default output
//   - TextWriter: human-readable blocks for terminal display
//   - MarkdownWriter: a document with summary and listing tables
//   - JSONWriter: the full crawl result for tool integration
//
// Writers implement the Writer interface and are usually obtained through
// NewWriter from a Format name.
package report
