// Package main provides the entry point for the autocrawl CLI.
//
// autocrawl crawls a paginated listing search, follows every "next page"
// link and writes the listings it finds as CSV (or text, Markdown, JSON).
// Pages are cached on disk for an hour so repeated runs are cheap.
//
// Usage:
//
//	autocrawl crawl <search-url>
//	autocrawl crawl <saved-search-name>
//
// See --help for all available options.
package main

// main is the entry point for autocrawl.
func main() {
	Execute()
}
