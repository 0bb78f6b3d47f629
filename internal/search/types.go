// Package search acquires raw search hits for one platform query. Two
// backends exist: a delegated search service and a direct results-page
// scrape. The pipeline only sees the Searcher interface.
package search

import (
	"context"
	"errors"
	"fmt"

	"atsscout-engine/internal/domain"
)

// Query is one platform iteration's search.
type Query struct {
	Platform domain.Platform
	Text     string // site:{platform} "{query}" "{location}"
}

// Limits carries the request knobs a backend may honour.
type Limits struct {
	MaxResults       int
	PostedWithinDays int
	Country          string
}

// Searcher returns raw hits for q. An error means the platform produced
// nothing usable; callers skip it and continue.
type Searcher interface {
	Name() string
	Search(ctx context.Context, q Query, lim Limits) ([]domain.RawSearchResult, error)
}

// DebugStore keeps result pages that no selector understood.
type DebugStore interface {
	SaveDebugPage(ctx context.Context, platform domain.Platform, body []byte) error
}

const (
	ModeDirect    = "direct"
	ModeDelegated = "delegated"
)

var ErrUnknownMode = errors.New("unknown search mode")

// Options configures New.
type Options struct {
	Direct    DirectConfig
	Delegated DelegatedConfig
	Service   Service // optional; built from Delegated when nil
}

// New selects the backend for a deployment.
func New(mode string, opts Options) (Searcher, error) {
	switch mode {
	case ModeDirect, "":
		return NewDirect(opts.Direct), nil
	case ModeDelegated:
		svc := opts.Service
		if svc == nil {
			hs, err := NewHTTPService(opts.Delegated)
			if err != nil {
				return nil, err
			}
			svc = hs
		}
		return NewDelegated(svc, opts.Delegated), nil
	default:
		return nil, fmt.Errorf("%w: %q (use %q or %q)", ErrUnknownMode, mode, ModeDirect, ModeDelegated)
	}
}
