package robots

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/autocrawl/autocrawl/internal/fetcher"
	"github.com/autocrawl/autocrawl/internal/model"
)

// stubGetter answers robots.txt requests from a fixed table.
type stubGetter struct {
	bodies map[string]string
	errs   map[string]error
	calls  int
}

func (s *stubGetter) Get(_ context.Context, rawURL string) (*model.FetchResult, error) {
	s.calls++
	if err, ok := s.errs[rawURL]; ok {
		return nil, err
	}
	return &model.FetchResult{URL: rawURL, Body: []byte(s.bodies[rawURL])}, nil
}

const rules = `User-agent: *
Disallow: /private/
Disallow: /search?sort=

User-agent: autocrawl
Disallow: /cars/hidden
`

// TestAllowed tests rule evaluation for different paths and agents.
func TestAllowed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		agent string
		url   string
		want  bool
	}{
		{name: "open path", agent: "other", url: "https://x.test/cars/results", want: true},
		{name: "disallowed prefix", agent: "other", url: "https://x.test/private/a", want: false},
		{name: "query rule", agent: "other", url: "https://x.test/search?sort=price", want: false},
		{name: "specific group", agent: "autocrawl", url: "https://x.test/cars/hidden/1", want: false},
		{name: "specific group replaces wildcard", agent: "autocrawl", url: "https://x.test/private/a", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			getter := &stubGetter{bodies: map[string]string{"https://x.test/robots.txt": rules}}
			gate := New(getter, tt.agent)

			got, err := gate.Allowed(context.Background(), tt.url)
			if err != nil {
				t.Fatalf("Allowed() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Allowed(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

// TestAllowedFetchesOncePerHost tests that robots.txt is requested once per
// origin.
func TestAllowedFetchesOncePerHost(t *testing.T) {
	t.Parallel()

	getter := &stubGetter{bodies: map[string]string{
		"https://x.test/robots.txt": rules,
		"https://y.test/robots.txt": "",
	}}
	gate := New(getter, "other")

	for _, u := range []string{"https://x.test/a", "https://x.test/b", "https://y.test/a", "https://x.test/c"} {
		if _, err := gate.Allowed(context.Background(), u); err != nil {
			t.Fatalf("Allowed(%q) error = %v", u, err)
		}
	}
	if getter.calls != 2 {
		t.Errorf("robots.txt requests = %d, want 2", getter.calls)
	}
}

// TestAllowedStatus tests how robots.txt status codes are interpreted.
func TestAllowedStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{name: "not found allows all", status: http.StatusNotFound, want: true},
		{name: "server error disallows all", status: http.StatusServiceUnavailable, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			getter := &stubGetter{errs: map[string]error{
				"https://x.test/robots.txt": &fetcher.StatusError{URL: "https://x.test/robots.txt", StatusCode: tt.status},
			}}

			got, err := New(getter, "autocrawl").Allowed(context.Background(), "https://x.test/cars")
			if err != nil {
				t.Fatalf("Allowed() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Allowed() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestAllowedNetworkError tests that transport failures are returned.
func TestAllowedNetworkError(t *testing.T) {
	t.Parallel()

	netErr := errors.New("connection refused")
	getter := &stubGetter{errs: map[string]error{"https://x.test/robots.txt": netErr}}

	if _, err := New(getter, "autocrawl").Allowed(context.Background(), "https://x.test/cars"); !errors.Is(err, netErr) {
		t.Errorf("Allowed() error = %v, want %v", err, netErr)
	}
}
