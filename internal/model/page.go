package model

// Provenance records where a page body came from.
type Provenance int

const (
	// ProvenanceNetwork means the body was fetched over HTTP.
	ProvenanceNetwork Provenance = iota

	// ProvenanceCache means the body was served from the page cache.
	ProvenanceCache
)

// String returns a short label for logs.
func (p Provenance) String() string {
	switch p {
	case ProvenanceNetwork:
		return "network"
	case ProvenanceCache:
		return "cache"
	default:
		return "unknown"
	}
}

// FetchResult is a page body paired with its provenance.
// It is owned by the call that produced it.
type FetchResult struct {
	// URL is the requested URL.
	URL string

	// Body is the raw response body.
	Body []byte

	// Provenance tells whether Body was a cache hit or a network fetch.
	Provenance Provenance
}

// FromCache reports whether the body was served from the page cache.
func (r *FetchResult) FromCache() bool {
	return r.Provenance == ProvenanceCache
}

// PageResult is what the extractor found on one search-results page.
type PageResult struct {
	// Listings are the valid listings on the page, in document order.
	Listings []Listing

	// NextURL is the URL of the following results page.
	// An empty string means this is the last page.
	NextURL string
}

// HasNext reports whether another results page follows.
func (r *PageResult) HasNext() bool {
	return r.NextURL != ""
}
