package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/autocrawl/autocrawl/internal/model"
)

// PageGetter returns the body of a URL. *Source implements it.
type PageGetter interface {
	Get(ctx context.Context, rawURL string) (*model.FetchResult, error)
}

// Extractor turns one page into listings and an optional next-page URL.
type Extractor interface {
	Extract(body []byte, baseURL string) (*model.PageResult, error)
}

// Gate decides whether a URL may be requested.
type Gate interface {
	Allowed(ctx context.Context, rawURL string) (bool, error)
}

// Driver follows the pagination of a listing search.
type Driver struct {
	source    PageGetter
	extractor Extractor

	// maxPages limits the number of pages per crawl. 0 means unlimited.
	maxPages int

	// delay is the pause after a page fetched from the network.
	delay time.Duration

	// robots is nil when robots.txt is not consulted.
	robots Gate

	logger *slog.Logger
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithMaxPages sets the maximum number of pages per crawl.
// 0 disables the limit.
func WithMaxPages(n int) DriverOption {
	return func(d *Driver) {
		if n >= 0 {
			d.maxPages = n
		}
	}
}

// WithDelay sets the pause taken after each page that came from the
// network before the next page is requested. Cached pages impose no pause.
func WithDelay(delay time.Duration) DriverOption {
	return func(d *Driver) {
		d.delay = delay
	}
}

// WithRobots checks every page URL against gate before it is requested.
func WithRobots(gate Gate) DriverOption {
	return func(d *Driver) {
		d.robots = gate
	}
}

// WithDriverLogger sets the logger.
func WithDriverLogger(logger *slog.Logger) DriverOption {
	return func(d *Driver) {
		d.logger = logger
	}
}

// NewDriver creates a Driver reading pages from source and parsing them
// with extractor.
func NewDriver(source PageGetter, extractor Extractor, opts ...DriverOption) *Driver {
	d := &Driver{
		source:    source,
		extractor: extractor,
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = slog.Default()
	}

	return d
}

// Crawl walks the pagination starting at startURL and returns every listing
// found, in page order.
//
// Any failure aborts the crawl and no partial result is returned.
func (d *Driver) Crawl(ctx context.Context, startURL string) (*model.CrawlResult, error) {
	current, err := parseStartURL(startURL)
	if err != nil {
		return nil, err
	}

	result := model.NewCrawlResult(startURL)
	visited := make(map[string]bool)

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		visited[normalizeURL(current)] = true

		if d.robots != nil {
			allowed, err := d.robots.Allowed(ctx, current)
			if err != nil {
				return nil, fmt.Errorf("failed to check robots.txt for %s: %w", current, err)
			}
			if !allowed {
				return nil, fmt.Errorf("%w: %s", ErrDisallowed, current)
			}
		}

		d.logger.Info("crawling page", "page", page, "url", current)

		fetched, err := d.source.Get(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("failed to get page %d: %w", page, err)
		}

		pageResult, err := d.extractor.Extract(fetched.Body, current)
		if err != nil {
			return nil, fmt.Errorf("failed to extract listings from %s: %w", current, err)
		}

		result.Pages++
		if fetched.FromCache() {
			result.CacheHits++
		}
		result.Listings = append(result.Listings, pageResult.Listings...)

		d.logger.Info("extracted listings",
			"page", page,
			"listings", len(pageResult.Listings),
			"total", len(result.Listings),
		)

		if !pageResult.HasNext() {
			d.logger.Info("no next page, crawl finished", "pages", result.Pages, "listings", len(result.Listings))
			break
		}

		next, err := resolveURL(current, pageResult.NextURL)
		if err != nil {
			return nil, fmt.Errorf("invalid next page link %q on %s: %w", pageResult.NextURL, current, err)
		}
		d.logger.Info("found next page", "url", next)

		if visited[normalizeURL(next)] {
			return nil, fmt.Errorf("%w: %s links back to %s", ErrPaginationCycle, current, next)
		}
		if d.maxPages > 0 && page >= d.maxPages {
			return nil, fmt.Errorf("%w: more than %d pages", ErrPageLimit, d.maxPages)
		}

		if !fetched.FromCache() {
			if err := sleep(ctx, d.delay); err != nil {
				return nil, err
			}
		}

		current = next
	}

	result.FinishedAt = time.Now()
	return result, nil
}

// parseStartURL checks that raw is an absolute http(s) URL.
func parseStartURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidStartURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: %q", ErrInvalidStartURL, raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidStartURL, raw)
	}
	return u.String(), nil
}

// resolveURL resolves ref against the page it was found on. Absolute refs
// are returned unchanged.
func resolveURL(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}

// normalizeURL normalizes a URL for the visited set.
// The fragment is dropped, scheme and host are lower-cased and an empty
// path becomes "/".
func normalizeURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}

	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
