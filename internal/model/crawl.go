package model

import "time"

// CrawlResult is the outcome of one complete crawl, from the start URL
// through every reachable "next" page.
type CrawlResult struct {
	// StartURL is the search URL the crawl began at.
	StartURL string `json:"start_url"`

	// Listings holds every listing in page order, then document order.
	Listings []Listing `json:"listings"`

	// Pages is the number of result pages processed.
	Pages int `json:"pages"`

	// CacheHits is the number of pages served from the page cache.
	CacheHits int `json:"cache_hits"`

	// StartedAt is when the crawl began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the last page was processed.
	FinishedAt time.Time `json:"finished_at"`
}

// NewCrawlResult creates an empty result for the given start URL.
func NewCrawlResult(startURL string) *CrawlResult {
	return &CrawlResult{
		StartURL:  startURL,
		Listings:  make([]Listing, 0),
		StartedAt: time.Now(),
	}
}

// Duration returns how long the crawl took.
// It is zero until FinishedAt is set.
func (r *CrawlResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
