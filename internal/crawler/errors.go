package crawler

import "errors"

var (
	// ErrInvalidStartURL is returned when the start URL is not an absolute
	// http or https URL.
	ErrInvalidStartURL = errors.New("start URL must be an absolute http or https URL")

	// ErrPageLimit is returned when a crawl would exceed the page limit.
	ErrPageLimit = errors.New("page limit exceeded")

	// ErrPaginationCycle is returned when a next link leads back to a page
	// already visited in the same crawl.
	ErrPaginationCycle = errors.New("pagination cycle detected")

	// ErrDisallowed is returned when robots.txt disallows a page.
	ErrDisallowed = errors.New("disallowed by robots.txt")
)
