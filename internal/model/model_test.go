package model

import (
	"testing"
	"time"
)

// TestListingValid tests that only titled listings are valid.
func TestListingValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		listing Listing
		want    bool
	}{
		{
			name:    "title only is valid",
			listing: Listing{Title: "2015 Subaru Outback"},
			want:    true,
		},
		{
			name:    "empty title is invalid",
			listing: Listing{URL: "http://x/1", Price: 12000},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.listing.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestProvenanceString tests provenance labels.
func TestProvenanceString(t *testing.T) {
	t.Parallel()

	if ProvenanceCache.String() != "cache" {
		t.Errorf("expected 'cache', got %q", ProvenanceCache.String())
	}
	if ProvenanceNetwork.String() != "network" {
		t.Errorf("expected 'network', got %q", ProvenanceNetwork.String())
	}
	if Provenance(42).String() != "unknown" {
		t.Errorf("expected 'unknown', got %q", Provenance(42).String())
	}

	r := &FetchResult{Provenance: ProvenanceCache}
	if !r.FromCache() {
		t.Error("expected FromCache to be true")
	}
}

// TestCrawlResultDuration tests the Duration helper.
func TestCrawlResultDuration(t *testing.T) {
	t.Parallel()

	r := NewCrawlResult("http://example.com/search")
	if r.Duration() != 0 {
		t.Errorf("expected zero duration before finish, got %v", r.Duration())
	}
	if r.Listings == nil {
		t.Error("expected non-nil listings slice")
	}

	r.FinishedAt = r.StartedAt.Add(3 * time.Second)
	if r.Duration() != 3*time.Second {
		t.Errorf("expected 3s, got %v", r.Duration())
	}
}
