// Package model defines the core data structures shared by autocrawl packages.
//
// This package contains the following main types:
//   - Listing: One vehicle record extracted from a search-results page
//   - PageResult: Everything the extractor found on a single page
//   - FetchResult: A page body together with where it came from
//   - CrawlResult: The outcome of a complete crawl
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The crawler, extract, report and database packages all use
// these types, so centralizing them prevents import cycles.
//
// The models are serializable to JSON for report output and history storage.
package model
