// Package extract turns search-results pages into listings.
//
// Extractors are pure: they see one page body and the URL it was served
// from, and return the listings on that page plus the URL of the next page,
// if any. Relative links are resolved against the page URL.
package extract
