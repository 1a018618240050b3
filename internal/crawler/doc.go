// Package crawler drives a sequential crawl of a paginated listing.
//
// # Components
//
//   - Source: returns the body of a URL, from the page cache when a fresh
//     entry exists and from the network otherwise, writing network results
//     back to the cache on a best-effort basis.
//   - Driver: starts at a search URL, extracts listings from each page and
//     follows the page's "next" link until there is none.
//
// Pages are requested strictly one after another. The listing order of a
// crawl is page order, then order within the page.
//
// # Termination
//
// A crawl ends normally when a page yields no next link. It fails when a
// page cannot be obtained or extracted, when the page limit is exceeded,
// when a next link points back at a page already visited in the same crawl,
// or when the robots gate disallows a page. A failed crawl returns no
// partial result.
//
// # Usage
//
//	source := crawler.NewSource(fetcher.New(), cache.New("cache"), logger)
//	driver := crawler.NewDriver(source, extract.NewCarsales(), crawler.WithMaxPages(500))
//	result, err := driver.Crawl(ctx, startURL)
package crawler
