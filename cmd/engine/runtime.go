package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"atsscout-engine/internal/config"
	"atsscout-engine/internal/domain"
	"atsscout-engine/internal/events"
	"atsscout-engine/internal/pipeline"
	"atsscout-engine/internal/scrape/util"
	"atsscout-engine/internal/search"
	"atsscout-engine/internal/secrets"
	"atsscout-engine/internal/store"
)

const (
	dbFile         = "atsscout.db"
	defaultCfgPath = "config/config.yml"
	recentEvents   = 64
)

// engine is everything a command needs, built from the user config.
type engine struct {
	dataDir string
	cfgPath string
	cfgVal  *atomic.Value // stores config.Config

	db     *store.DB
	sink   pipeline.Sink
	hub    *events.Hub
	driver *pipeline.Driver

	closers []func() error
}

func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if v := strings.TrimSpace(os.Getenv(config.EnvDataDir)); v != "" {
		return v
	}
	return "."
}

func loadConfig(dir string) (string, config.Config, error) {
	userCfgPath, err := config.EnsureUserConfig(dir, defaultCfgPath)
	if err != nil {
		return "", config.Config{}, fmt.Errorf("config bootstrap failed: %w", err)
	}
	cfg, err := config.Load(userCfgPath)
	if err != nil {
		return "", config.Config{}, fmt.Errorf("config load failed (%s): %w", userCfgPath, err)
	}
	config.ApplyEnv(&cfg)
	cfg.App.DataDir = dir

	cfg, v := config.NormalizeAndValidate(cfg)
	for _, w := range v.Warnings {
		logger.Warn("config", zap.String("warning", w))
	}
	if !v.OK() {
		return "", config.Config{}, fmt.Errorf("invalid config %s:\n- %s", userCfgPath, strings.Join(v.Errors, "\n- "))
	}
	return userCfgPath, cfg, nil
}

func openEngine(ctx context.Context) (*engine, error) {
	dir := resolveDataDir()
	cfgPath, cfg, err := loadConfig(dir)
	if err != nil {
		return nil, err
	}

	e := &engine{dataDir: dir, cfgPath: cfgPath, cfgVal: &atomic.Value{}, hub: events.NewHub(recentEvents)}
	e.cfgVal.Store(cfg)

	e.db, err = store.Open(filepath.Join(dir, dbFile))
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, e.db.Close)

	if err := e.build(ctx, cfg); err != nil {
		_ = e.Close()
		return nil, err
	}
	return e, nil
}

func (e *engine) build(ctx context.Context, cfg config.Config) error {
	switch cfg.Output.Driver {
	case config.OutputPostgres:
		pg, err := store.OpenPG(ctx, cfg.Output.DSN, 2)
		if err != nil {
			return err
		}
		e.closers = append(e.closers, pg.Close)
		e.sink = pg
	case config.OutputNDJSON:
		path := cfg.Output.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(e.dataDir, path)
		}
		e.sink = &store.NDJSONSink{Path: path}
	default:
		e.sink = e.db.Postings()
	}

	searcher, err := newSearcher(cfg, e.db.DebugPages())
	if err != nil {
		return err
	}

	ceiling, err := config.CostCeiling()
	if err != nil {
		return err
	}

	platforms := make([]domain.Platform, 0, len(cfg.Platforms))
	for _, p := range cfg.Platforms {
		platforms = append(platforms, domain.Platform(p))
	}

	e.driver = pipeline.New(pipeline.Deps{
		Searcher:  searcher,
		Cache:     e.db.Cache(),
		Sink:      e.sink,
		Platforms: platforms,
		Freshness: cfg.Freshness(),
		Cost: pipeline.CostConfig{
			StartCost:     cfg.Cost.StartCost,
			PerResultCost: cfg.Cost.PerResultCost,
			Ceiling:       ceiling,
		},
		DefaultMaxResults: cfg.Search.MaxResultsPerSource,
		DefaultLocation:   cfg.Search.Location,
		Notify:            e.hub.Notify,
		Logger:            logger,
	})
	logger.Info("engine ready",
		zap.String("data_dir", e.dataDir),
		zap.String("mode", searcher.Name()),
		zap.String("output", cfg.Output.Driver),
		zap.Bool("cost_ceiling", ceiling != nil))
	return nil
}

func newSearcher(cfg config.Config, debug search.DebugStore) (search.Searcher, error) {
	proxies, err := search.NewProxyRotator(cfg.Direct.Proxies)
	if err != nil {
		return nil, err
	}
	opts := search.Options{
		Direct: search.DirectConfig{
			Endpoint: cfg.Direct.Endpoint,
			Attempts: cfg.Direct.Attempts,
			Backoff:  cfg.DirectBackoff(),
			Timeout:  cfg.DirectTimeout(),
			Proxies:  proxies,
			Limiter:  util.NewHostLimiter(cfg.Direct.ReqPerSec, cfg.Direct.Burst),
			Debug:    debug,
			Logger:   logger,
		},
		Delegated: search.DelegatedConfig{
			BaseURL:     cfg.Delegated.BaseURL,
			Actor:       cfg.Delegated.Actor,
			WaitSeconds: cfg.Delegated.WaitSeconds,
			Timeout:     cfg.DelegatedTimeout(),
			Logger:      logger,
		},
	}
	if cfg.Search.Mode == search.ModeDelegated {
		tok, err := secrets.GetSearchToken()
		if err != nil {
			return nil, err
		}
		opts.Delegated.Token = tok
	}
	return search.New(cfg.Search.Mode, opts)
}

func (e *engine) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	return errors.Join(errs...)
}
