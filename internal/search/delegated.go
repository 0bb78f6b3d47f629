package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"atsscout-engine/internal/domain"
)

// ErrNotSucceeded is returned when the search service run ends in any
// status other than succeeded.
var ErrNotSucceeded = errors.New("search service run did not succeed")

// ServiceInput is the search service's run input.
type ServiceInput struct {
	Queries          string `json:"queries"`
	MaxPagesPerQuery int    `json:"maxPagesPerQuery"`
	ResultsPerPage   int    `json:"resultsPerPage"`
	Mode             string `json:"mode"`
	CountryCode      string `json:"countryCode,omitempty"`
}

// ServiceRun is a finished run. ResultStore identifies where its rows live.
type ServiceRun struct {
	ID          string
	Status      string
	ResultStore string
}

type ServiceRow struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Service is the external search service. Call blocks until the run reaches
// a terminal status.
type Service interface {
	Call(ctx context.Context, in ServiceInput) (ServiceRun, error)
	Rows(ctx context.Context, resultStore string) ([]ServiceRow, error)
}

// Delegated hands each platform query to a Service.
type Delegated struct {
	svc Service
	log *zap.Logger
}

func NewDelegated(svc Service, cfg DelegatedConfig) *Delegated {
	lg := cfg.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Delegated{svc: svc, log: lg.Named("search.delegated")}
}

func (d *Delegated) Name() string { return ModeDelegated }

func (d *Delegated) Search(ctx context.Context, q Query, lim Limits) ([]domain.RawSearchResult, error) {
	per := lim.MaxResults
	if per <= 0 || per > maxResultHint {
		per = maxResultHint
	}
	run, err := d.svc.Call(ctx, ServiceInput{
		Queries:          q.Text,
		MaxPagesPerQuery: 1,
		ResultsPerPage:   per,
		Mode:             "search",
		CountryCode:      strings.ToLower(lim.Country),
	})
	if err != nil {
		return nil, fmt.Errorf("call search service: %w", err)
	}
	if !strings.EqualFold(run.Status, "succeeded") {
		return nil, fmt.Errorf("%w: run=%s status=%s", ErrNotSucceeded, run.ID, run.Status)
	}

	rows, err := d.svc.Rows(ctx, run.ResultStore)
	if err != nil {
		return nil, fmt.Errorf("read search service rows: %w", err)
	}
	out := make([]domain.RawSearchResult, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.RawSearchResult{Title: r.Title, URL: r.URL})
	}
	d.log.Debug("search service rows",
		zap.String("platform", string(q.Platform)), zap.String("run", run.ID), zap.Int("count", len(out)))
	return out, nil
}
