package httpapi

import (
	"context"
	"database/sql"
	"sync/atomic"

	"go.uber.org/zap"

	"atsscout-engine/internal/config"
	"atsscout-engine/internal/domain"
	"atsscout-engine/internal/events"
	"atsscout-engine/internal/pipeline"
	"atsscout-engine/internal/store"
)

// Runner executes one aggregation run.
type Runner interface {
	Run(ctx context.Context, req domain.SearchRequest) (pipeline.Result, error)
}

type PostingLister interface {
	List(ctx context.Context, opts store.ListPostingsOpts) ([]store.StoredPosting, error)
}

type DebugPageReader interface {
	Get(ctx context.Context, p domain.Platform) (store.DebugPage, bool, error)
}

type Deps struct {
	DB *sql.DB // optional; enables /db/checkpoint

	Hub *events.Hub

	Runner   Runner
	Postings PostingLister // optional when output is not sqlite
	Debug    DebugPageReader

	// Atomic stores
	CfgVal    *atomic.Value // stores config.Config
	RunStatus *atomic.Value // stores httpapi.RunStatus

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	Logger *zap.Logger
}
