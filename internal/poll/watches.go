// Package poll re-runs the configured watches on a timer.
package poll

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"atsscout-engine/internal/config"
	"atsscout-engine/internal/domain"
	"atsscout-engine/internal/pipeline"
	"atsscout-engine/internal/scheduler"
)

type Runner interface {
	Run(ctx context.Context, req domain.SearchRequest) (pipeline.Result, error)
}

type Options struct {
	Concurrency int           // watches in flight; default 1
	Timeout     time.Duration // per watch; 0 means none
	Logger      *zap.Logger
}

// Outcome is one watch's run.
type Outcome struct {
	Watch     config.Watch
	RunID     string
	Count     int
	FromCache bool
	Err       error
}

func requestFor(w config.Watch) domain.SearchRequest {
	return domain.SearchRequest{
		Query:            w.Query,
		Location:         w.Location,
		PostedWithinDays: w.PostedWithinDays,
		Country:          w.Country,
	}
}

// RunWatches runs every watch once. A failed watch is recorded in its
// Outcome and never stops the others. Outcomes keep the order of watches.
func RunWatches(ctx context.Context, r Runner, watches []config.Watch, opts Options) []Outcome {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("poll")
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	out := make([]Outcome, len(watches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for i, w := range watches {
		i, w := i, w
		g.Go(func() error {
			wctx := gctx
			if opts.Timeout > 0 {
				var cancel context.CancelFunc
				wctx, cancel = context.WithTimeout(gctx, opts.Timeout)
				defer cancel()
			}

			res, err := r.Run(wctx, requestFor(w))
			out[i] = Outcome{Watch: w, RunID: res.RunID, Count: len(res.Postings), FromCache: res.FromCache, Err: err}
			if err != nil {
				log.Warn("watch failed", zap.String("query", w.Query), zap.String("location", w.Location), zap.Error(err))
				return nil
			}
			log.Info("watch done", zap.String("query", w.Query), zap.String("run_id", res.RunID),
				zap.Int("count", len(res.Postings)), zap.Bool("from_cache", res.FromCache))
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Start blocks, re-running the current config's watches every
// polling.watch_seconds until ctx is done.
func Start(ctx context.Context, cfgVal *atomic.Value, r Runner, opts Options) {
	cfg := cfgVal.Load().(config.Config)
	interval := cfg.WatchInterval()
	if interval <= 0 {
		interval = time.Hour
	}
	scheduler.Every(ctx, interval, "watches", opts.Logger, func(ctx context.Context) error {
		cur := cfgVal.Load().(config.Config)
		if len(cur.Watches) == 0 {
			return nil
		}
		RunWatches(ctx, r, cur.Watches, opts)
		return nil
	})
}
