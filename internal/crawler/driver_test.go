package crawler

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/autocrawl/autocrawl/internal/cache"
	"github.com/autocrawl/autocrawl/internal/model"
)

// lineExtractor reads "listing <title>" and "next <url>" lines.
type lineExtractor struct {
	err error
}

func (e lineExtractor) Extract(body []byte, baseURL string) (*model.PageResult, error) {
	if e.err != nil {
		return nil, e.err
	}

	result := &model.PageResult{}
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		kind, value, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		switch kind {
		case "listing":
			result.Listings = append(result.Listings, model.Listing{Title: value, URL: baseURL})
		case "next":
			result.NextURL = value
		}
	}
	return result, nil
}

// fakeGate disallows the listed URLs.
type fakeGate struct {
	deny map[string]bool
}

func (g fakeGate) Allowed(_ context.Context, rawURL string) (bool, error) {
	return !g.deny[rawURL], nil
}

func titles(listings []model.Listing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.Title)
	}
	return out
}

func newTestDriver(fetcher *fakeFetcher, opts ...DriverOption) *Driver {
	opts = append([]DriverOption{WithDriverLogger(quietLogger())}, opts...)
	return NewDriver(NewSource(fetcher, nil, quietLogger()), lineExtractor{}, opts...)
}

// TestCrawlFollowsPagination tests that three chained pages are crawled in
// order and that no fourth request is made.
func TestCrawlFollowsPagination(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher(map[string]string{
		"http://x/s?p=1": "listing A\nlisting B\nnext http://x/s?p=2",
		"http://x/s?p=2": "listing C\nnext http://x/s?p=3",
		"http://x/s?p=3": "listing D",
	})

	result, err := newTestDriver(fetcher).Crawl(context.Background(), "http://x/s?p=1")
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}

	if diff := cmp.Diff([]string{"A", "B", "C", "D"}, titles(result.Listings)); diff != "" {
		t.Errorf("listings mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"http://x/s?p=1", "http://x/s?p=2", "http://x/s?p=3"}, fetcher.order); diff != "" {
		t.Errorf("fetch order mismatch (-want +got):\n%s", diff)
	}
	if result.Pages != 3 {
		t.Errorf("Pages = %d, want 3", result.Pages)
	}
	if result.StartURL != "http://x/s?p=1" {
		t.Errorf("StartURL = %q", result.StartURL)
	}
	if result.FinishedAt.Before(result.StartedAt) {
		t.Error("FinishedAt before StartedAt")
	}
}

// TestCrawlEmptyPageContinues tests that a page without listings does not
// end the crawl while it still links onward.
func TestCrawlEmptyPageContinues(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher(map[string]string{
		"http://x/1": "listing A\nnext http://x/2",
		"http://x/2": "next http://x/3",
		"http://x/3": "listing C",
	})

	result, err := newTestDriver(fetcher).Crawl(context.Background(), "http://x/1")
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}
	if diff := cmp.Diff([]string{"A", "C"}, titles(result.Listings)); diff != "" {
		t.Errorf("listings mismatch (-want +got):\n%s", diff)
	}
}

// TestCrawlResolvesRelativeNext tests that a relative next link is resolved
// against the page it appears on, not the start URL.
func TestCrawlResolvesRelativeNext(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher(map[string]string{
		"http://x/a/start":        "listing A\nnext http://x/b/c/page2",
		"http://x/b/c/page2":      "listing B\nnext page3?o=24",
		"http://x/b/c/page3?o=24": "listing C\nnext /root?o=48",
		"http://x/root?o=48":      "listing D",
	})

	result, err := newTestDriver(fetcher).Crawl(context.Background(), "http://x/a/start")
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}
	want := []string{"http://x/a/start", "http://x/b/c/page2", "http://x/b/c/page3?o=24", "http://x/root?o=48"}
	if diff := cmp.Diff(want, fetcher.order); diff != "" {
		t.Errorf("fetch order mismatch (-want +got):\n%s", diff)
	}
	if len(result.Listings) != 4 {
		t.Errorf("listings = %d, want 4", len(result.Listings))
	}
}

// TestCrawlUsesCache tests that a second crawl is served from cache.
func TestCrawlUsesCache(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher(map[string]string{
		"http://x/1": "listing A\nnext http://x/2",
		"http://x/2": "listing B",
	})
	pageCache := cache.New(t.TempDir(), cache.WithLogger(quietLogger()))
	driver := NewDriver(
		NewSource(fetcher, pageCache, quietLogger()),
		lineExtractor{},
		WithDriverLogger(quietLogger()),
	)

	first, err := driver.Crawl(context.Background(), "http://x/1")
	if err != nil {
		t.Fatalf("first Crawl() error = %v", err)
	}
	second, err := driver.Crawl(context.Background(), "http://x/1")
	if err != nil {
		t.Fatalf("second Crawl() error = %v", err)
	}

	if fetcher.total() != 2 {
		t.Errorf("fetches = %d, want 2", fetcher.total())
	}
	if first.CacheHits != 0 || second.CacheHits != 2 {
		t.Errorf("CacheHits = %d/%d, want 0/2", first.CacheHits, second.CacheHits)
	}
	if diff := cmp.Diff(titles(first.Listings), titles(second.Listings)); diff != "" {
		t.Errorf("cached crawl differs (-first +second):\n%s", diff)
	}
}

// TestCrawlErrors tests that failures abort the crawl without a result.
func TestCrawlErrors(t *testing.T) {
	t.Parallel()

	fetchErr := errors.New("connection reset")
	extractErr := errors.New("bad markup")

	tests := []struct {
		name    string
		start   string
		pages   map[string]string
		errs    map[string]error
		extract error
		opts    []DriverOption
		wantErr error
	}{
		{
			name:    "relative start URL",
			start:   "/search",
			wantErr: ErrInvalidStartURL,
		},
		{
			name:    "unsupported scheme",
			start:   "ftp://x/search",
			wantErr: ErrInvalidStartURL,
		},
		{
			name:    "fetch error on second page",
			start:   "http://x/1",
			pages:   map[string]string{"http://x/1": "listing A\nnext http://x/2"},
			errs:    map[string]error{"http://x/2": fetchErr},
			wantErr: fetchErr,
		},
		{
			name:    "extract error",
			start:   "http://x/1",
			pages:   map[string]string{"http://x/1": "listing A"},
			extract: extractErr,
			wantErr: extractErr,
		},
		{
			name:  "pagination cycle",
			start: "http://x/1",
			pages: map[string]string{
				"http://x/1": "listing A\nnext http://x/2",
				"http://x/2": "listing B\nnext http://X/1#top",
			},
			wantErr: ErrPaginationCycle,
		},
		{
			name:  "page limit",
			start: "http://x/1",
			pages: map[string]string{
				"http://x/1": "next http://x/2",
				"http://x/2": "next http://x/3",
				"http://x/3": "listing C",
			},
			opts:    []DriverOption{WithMaxPages(2)},
			wantErr: ErrPageLimit,
		},
		{
			name:  "robots disallow",
			start: "http://x/1",
			pages: map[string]string{
				"http://x/1": "next http://x/private",
			},
			opts:    []DriverOption{WithRobots(fakeGate{deny: map[string]bool{"http://x/private": true}})},
			wantErr: ErrDisallowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fetcher := newFakeFetcher(tt.pages)
			for u, err := range tt.errs {
				fetcher.errs[u] = err
			}
			opts := append([]DriverOption{WithDriverLogger(quietLogger())}, tt.opts...)
			driver := NewDriver(NewSource(fetcher, nil, quietLogger()), lineExtractor{err: tt.extract}, opts...)

			result, err := driver.Crawl(context.Background(), tt.start)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Crawl() error = %v, want %v", err, tt.wantErr)
			}
			if result != nil {
				t.Errorf("Crawl() result = %+v, want nil", result)
			}
		})
	}
}

// TestCrawlPageLimitExact tests that a crawl ending exactly at the limit
// succeeds.
func TestCrawlPageLimitExact(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher(map[string]string{
		"http://x/1": "listing A\nnext http://x/2",
		"http://x/2": "listing B",
	})

	result, err := newTestDriver(fetcher, WithMaxPages(2)).Crawl(context.Background(), "http://x/1")
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}
	if result.Pages != 2 {
		t.Errorf("Pages = %d, want 2", result.Pages)
	}
}

// TestCrawlDelayCancelled tests that cancelling during the politeness delay
// stops the crawl.
func TestCrawlDelayCancelled(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher(map[string]string{
		"http://x/1": "listing A\nnext http://x/2",
		"http://x/2": "listing B",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestDriver(fetcher, WithDelay(time.Hour)).Crawl(ctx, "http://x/1")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Crawl() error = %v, want context.DeadlineExceeded", err)
	}
	if fetcher.total() != 1 {
		t.Errorf("fetches = %d, want 1", fetcher.total())
	}
}

// TestNormalizeURL tests URL normalization for the visited set.
func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "http://Example.com", want: "http://example.com/"},
		{in: "HTTP://example.com/a#frag", want: "http://example.com/a"},
		{in: "http://example.com/a?o=12", want: "http://example.com/a?o=12"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := normalizeURL(tt.in); got != tt.want {
				t.Errorf("normalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
