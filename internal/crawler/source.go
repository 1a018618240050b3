package crawler

import (
	"context"
	"log/slog"

	"github.com/autocrawl/autocrawl/internal/model"
)

// PageCache is the cache a Source reads from and writes back to.
type PageCache interface {
	Lookup(rawURL string) ([]byte, bool)
	Store(rawURL string, body []byte) error
}

// PageFetcher retrieves a URL from the network.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Source returns page bodies, preferring fresh cache entries over the
// network.
type Source struct {
	fetcher PageFetcher

	// cache is nil when caching is disabled.
	cache PageCache

	logger *slog.Logger
}

// NewSource creates a Source. A nil cache disables caching; a nil logger
// uses slog.Default.
func NewSource(fetcher PageFetcher, cache PageCache, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		fetcher: fetcher,
		cache:   cache,
		logger:  logger,
	}
}

// Get returns the body of rawURL.
//
// A cache hit returns immediately without touching the network or the
// cache. On a miss the page is fetched; a failed write-back is logged and
// otherwise ignored. Fetch errors are returned as is.
func (s *Source) Get(ctx context.Context, rawURL string) (*model.FetchResult, error) {
	if s.cache != nil {
		if body, ok := s.cache.Lookup(rawURL); ok {
			s.logger.Info("cache hit", "url", rawURL)
			return &model.FetchResult{
				URL:        rawURL,
				Body:       body,
				Provenance: model.ProvenanceCache,
			}, nil
		}
		s.logger.Info("cache miss", "url", rawURL)
	}

	body, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Store(rawURL, body); err != nil {
			s.logger.Warn("failed to write cache entry", "url", rawURL, "error", err)
		} else {
			s.logger.Info("cache entry written", "url", rawURL)
		}
	}

	return &model.FetchResult{
		URL:        rawURL,
		Body:       body,
		Provenance: model.ProvenanceNetwork,
	}, nil
}
