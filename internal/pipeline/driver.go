// Package pipeline drives one aggregation run: cache check, the per-platform
// search loop with dedupe and the cost gate, then the cache write and output.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"atsscout-engine/internal/cache"
	"atsscout-engine/internal/domain"
	"atsscout-engine/internal/normalize"
	"atsscout-engine/internal/search"
)

// ErrMissingQuery is the only pre-flight failure; no platform is searched.
var ErrMissingQuery = errors.New("query is required")

const DefaultMaxResultsPerSource = 10

// Sink receives the final postings of a run, once.
type Sink interface {
	Append(ctx context.Context, batch domain.OutputBatch) error
}

// Notifier observes run progress. It must not block.
type Notifier func(runID, eventType string, data any)

// Event types passed to Notifier.
const (
	EventRunStarted   = "run_started"
	EventCacheHit     = "cache_hit"
	EventPlatformDone = "platform_done"
	EventCostStopped  = "cost_stopped"
	EventRunFinished  = "run_finished"
)

type CostConfig struct {
	StartCost     float64
	PerResultCost float64
	Ceiling       *float64 // nil disables the governor
}

type Deps struct {
	Searcher          search.Searcher
	Cache             cache.Store
	Sink              Sink
	Platforms         []domain.Platform
	Freshness         time.Duration
	Cost              CostConfig
	DefaultMaxResults int
	// DefaultLocation fills requests that carry no location.
	DefaultLocation string
	Notify            Notifier
	Now               func() time.Time
	Logger            *zap.Logger
}

type Driver struct {
	d   Deps
	log *zap.Logger
}

func New(d Deps) *Driver {
	if d.Cache == nil {
		d.Cache = cache.NewMemory()
	}
	if len(d.Platforms) == 0 {
		d.Platforms = domain.DefaultPlatforms
	}
	if d.Freshness <= 0 {
		d.Freshness = cache.DefaultFreshness
	}
	if d.DefaultMaxResults <= 0 {
		d.DefaultMaxResults = DefaultMaxResultsPerSource
	}
	d.DefaultLocation = strings.TrimSpace(d.DefaultLocation)
	if d.DefaultLocation == "" {
		d.DefaultLocation = domain.DefaultLocation
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Driver{d: d, log: d.Logger.Named("pipeline")}
}

type PlatformSummary struct {
	Platform  domain.Platform `json:"platform"`
	Raw       int             `json:"raw"`
	Rejected  int             `json:"rejected"`
	Duplicate int             `json:"duplicate"`
	Accepted  int             `json:"accepted"`
	Err       string          `json:"error,omitempty"`
}

type Result struct {
	RunID         string              `json:"runId"`
	SearchKey     string              `json:"searchKey"`
	Postings      []domain.JobPosting `json:"postings"`
	FromCache     bool                `json:"fromCache"`
	StoppedByCost bool                `json:"stoppedByCost"`
	Cost          float64             `json:"estimatedCost"`
	Platforms     []PlatformSummary   `json:"platforms,omitempty"`
}

// Run executes one request. Per-platform failures are logged and skipped.
// Errors from the final cache write or sink are returned alongside a
// populated Result.
func (dr *Driver) Run(ctx context.Context, req domain.SearchRequest) (Result, error) {
	if strings.TrimSpace(req.Location) == "" {
		req.Location = dr.d.DefaultLocation
	}
	req = req.WithDefaults()
	if req.Query == "" {
		return Result{}, ErrMissingQuery
	}

	res := Result{RunID: uuid.NewString(), SearchKey: cache.Key(req)}
	log := dr.log.With(zap.String("run_id", res.RunID), zap.String("query", req.Query), zap.String("location", req.Location))
	dr.notify(res.RunID, EventRunStarted, map[string]any{"query": req.Query, "location": req.Location})

	if !req.ForceFresh {
		if entry, ok := dr.cached(ctx, log, res.SearchKey); ok {
			res.Postings = entry.Results
			res.FromCache = true
			log.Info("serving cached results", zap.Int("count", len(res.Postings)))
			dr.notify(res.RunID, EventCacheHit, map[string]any{"count": len(res.Postings)})
			err := dr.emit(ctx, res)
			dr.notify(res.RunID, EventRunFinished, map[string]any{"count": len(res.Postings), "fromCache": true})
			return res, err
		}
	}

	maxPer := req.MaxResultsPerSource
	if maxPer <= 0 {
		maxPer = dr.d.DefaultMaxResults
	}
	lim := search.Limits{MaxResults: maxPer, PostedWithinDays: req.PostedWithinDays, Country: req.Country}

	st := newRunState(NewCostBudget(dr.d.Cost.StartCost, dr.d.Cost.PerResultCost, dr.d.Cost.Ceiling))
	for _, p := range dr.d.Platforms {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		var sum PlatformSummary
		st, sum = dr.runPlatform(ctx, log, st, p, req, lim)
		res.Platforms = append(res.Platforms, sum)
		dr.notify(res.RunID, EventPlatformDone, sum)
		if st.StoppedByCost {
			log.Info("cost ceiling reached, stopping",
				zap.Float64("accumulated", st.Budget.Accumulated),
				zap.Float64("ceiling", *st.Budget.Ceiling),
				zap.Int("count", len(st.Postings)))
			dr.notify(res.RunID, EventCostStopped, map[string]any{"accumulated": st.Budget.Accumulated})
			break
		}
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	res.Postings = st.Postings
	res.StoppedByCost = st.StoppedByCost
	res.Cost = st.Budget.Accumulated

	err := dr.finalize(ctx, res)
	log.Info("run finished", zap.Int("count", len(res.Postings)), zap.Bool("stopped_by_cost", res.StoppedByCost))
	dr.notify(res.RunID, EventRunFinished, map[string]any{"count": len(res.Postings), "fromCache": false})
	return res, err
}

func (dr *Driver) cached(ctx context.Context, log *zap.Logger, key string) (cache.Entry, bool) {
	entry, ok, err := dr.d.Cache.Get(ctx, key)
	if err != nil {
		log.Warn("cache read failed, searching fresh", zap.Error(err))
		return cache.Entry{}, false
	}
	if !ok {
		return cache.Entry{}, false
	}
	if !entry.Fresh(dr.d.Now(), dr.d.Freshness) {
		log.Debug("cache entry stale", zap.Int64("timestamp", entry.Timestamp))
		return cache.Entry{}, false
	}
	return entry, true
}

// runPlatform searches one platform and commits its postings into st.
func (dr *Driver) runPlatform(ctx context.Context, log *zap.Logger, st runState, p domain.Platform, req domain.SearchRequest, lim search.Limits) (runState, PlatformSummary) {
	sum := PlatformSummary{Platform: p}
	q := search.Query{Platform: p, Text: p.Query(req.Query, req.Location)}
	plog := log.With(zap.String("platform", string(p)))

	raws, err := dr.d.Searcher.Search(ctx, q, lim)
	if err != nil {
		sum.Err = err.Error()
		plog.Warn("platform skipped", zap.Error(err))
		return st, sum
	}
	sum.Raw = len(raws)

	src := normalize.Source{Platform: p, Query: q.Text, Location: req.Location}
	for _, raw := range raws {
		if sum.Accepted >= lim.MaxResults {
			break
		}
		posting, ok := normalize.Extract(raw, src, dr.d.Now())
		if !ok {
			sum.Rejected++
			continue
		}
		if st.Seen.Has(posting.ApplyURL) {
			sum.Duplicate++
			continue
		}
		if !st.Budget.CanEmit() {
			st.StoppedByCost = true
			return st, sum
		}
		st.Seen.Add(posting.ApplyURL)
		st.Budget = st.Budget.Charge()
		st.Postings = append(st.Postings, posting)
		sum.Accepted++
	}
	plog.Info("platform done", zap.Int("raw", sum.Raw), zap.Int("accepted", sum.Accepted),
		zap.Int("rejected", sum.Rejected), zap.Int("duplicate", sum.Duplicate))
	return st, sum
}

// finalize writes the cache entry, even for an empty result, then emits.
func (dr *Driver) finalize(ctx context.Context, res Result) error {
	var errs []error
	if err := dr.d.Cache.Set(ctx, res.SearchKey, cache.NewEntry(dr.d.Now(), res.Postings)); err != nil {
		errs = append(errs, fmt.Errorf("write cache: %w", err))
	}
	if err := dr.emit(ctx, res); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (dr *Driver) emit(ctx context.Context, res Result) error {
	if dr.d.Sink == nil {
		return nil
	}
	if err := dr.d.Sink.Append(ctx, domain.OutputBatch{
		RunID:     res.RunID,
		SearchKey: res.SearchKey,
		FromCache: res.FromCache,
		Postings:  res.Postings,
	}); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func (dr *Driver) notify(runID, typ string, data any) {
	if dr.d.Notify != nil {
		dr.d.Notify(runID, typ, data)
	}
}
