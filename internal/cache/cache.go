// Package cache holds the per-query result cache: key derivation, the entry
// format with its freshness rule, and the Store contract.
package cache

import (
	"context"
	"time"

	"atsscout-engine/internal/domain"
)

// DefaultFreshness is how long an entry stays usable after the run that wrote it.
const DefaultFreshness = 3 * time.Hour

// Entry is what a run writes once at the end. Timestamp is epoch milliseconds.
type Entry struct {
	Timestamp int64               `json:"timestamp"`
	Results   []domain.JobPosting `json:"results"`
}

// NewEntry stamps results with now.
func NewEntry(now time.Time, results []domain.JobPosting) Entry {
	if results == nil {
		results = []domain.JobPosting{}
	}
	return Entry{Timestamp: now.UnixMilli(), Results: results}
}

// Fresh reports whether the entry is younger than window at now.
func (e Entry) Fresh(now time.Time, window time.Duration) bool {
	return now.UnixMilli()-e.Timestamp < window.Milliseconds()
}

// Store is a string-keyed entry store with get and set only. Get returns
// ok=false for a missing key.
type Store interface {
	Get(ctx context.Context, key string) (entry Entry, ok bool, err error)
	Set(ctx context.Context, key string, entry Entry) error
}
