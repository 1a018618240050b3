// Package robots checks page URLs against the site's robots.txt.
package robots

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"

	"github.com/autocrawl/autocrawl/internal/fetcher"
	"github.com/autocrawl/autocrawl/internal/model"
)

// Getter returns the body of a URL. The crawler's page source satisfies it,
// so robots.txt files are cached like any other page.
type Getter interface {
	Get(ctx context.Context, rawURL string) (*model.FetchResult, error)
}

// Gate answers whether an agent may request a URL.
// robots.txt is fetched once per scheme and host.
type Gate struct {
	source Getter
	agent  string

	mu    sync.Mutex
	hosts map[string]*robotstxt.RobotsData
}

// New creates a Gate that fetches robots.txt through source and evaluates
// the rules for agent.
func New(source Getter, agent string) *Gate {
	return &Gate{
		source: source,
		agent:  agent,
		hosts:  make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether rawURL may be requested.
//
// A robots.txt answered with a 4xx status allows everything and a 5xx
// status disallows everything. Network errors are returned.
func (g *Gate) Allowed(ctx context.Context, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	data, err := g.rules(ctx, u)
	if err != nil {
		return false, err
	}

	return data.TestAgent(u.RequestURI(), g.agent), nil
}

// rules returns the parsed robots.txt for the URL's origin.
func (g *Gate) rules(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	origin := u.Scheme + "://" + u.Host

	g.mu.Lock()
	data, ok := g.hosts[origin]
	g.mu.Unlock()
	if ok {
		return data, nil
	}

	robotsURL := origin + "/robots.txt"

	status, body := 200, []byte(nil)
	page, err := g.source.Get(ctx, robotsURL)
	if err != nil {
		var statusErr *fetcher.StatusError
		if !errors.As(err, &statusErr) {
			return nil, fmt.Errorf("failed to fetch %s: %w", robotsURL, err)
		}
		status = statusErr.StatusCode
	} else {
		body = page.Body
	}

	data, err = robotstxt.FromStatusAndBytes(status, body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", robotsURL, err)
	}

	g.mu.Lock()
	g.hosts[origin] = data
	g.mu.Unlock()

	return data, nil
}
