package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"atsscout-engine/internal/domain"
)

const pgBatchSize = 200

// PGSink writes postings into a Postgres job_postings table. Re-emitting
// the same (search_key, apply_url) pair is a no-op.
type PGSink struct {
	Pool *pgxpool.Pool
}

func OpenPG(ctx context.Context, dsn string, maxConns int) (*PGSink, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if maxConns <= 0 {
		maxConns = 2
	}
	cfg.MaxConns = int32(maxConns)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := &PGSink{Pool: pool}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PGSink) EnsureSchema(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS job_postings (
  id           BIGSERIAL PRIMARY KEY,
  run_id       TEXT NOT NULL,
  search_key   TEXT NOT NULL,
  from_cache   BOOLEAN NOT NULL DEFAULT FALSE,
  title        TEXT NOT NULL,
  company      TEXT NOT NULL,
  location     TEXT NOT NULL,
  apply_url    TEXT NOT NULL,
  platform     TEXT NOT NULL,
  job_id       TEXT NULL,
  found_at     TIMESTAMPTZ NOT NULL,
  search_query TEXT NOT NULL,
  UNIQUE (search_key, apply_url)
)`)
	return err
}

func (s *PGSink) Append(ctx context.Context, b domain.OutputBatch) error {
	_, err := s.insert(ctx, b)
	return err
}

// insert returns the number of rows actually written.
func (s *PGSink) insert(ctx context.Context, b domain.OutputBatch) (int, error) {
	total := 0
	for i := 0; i < len(b.Postings); i += pgBatchSize {
		j := min(i+pgBatchSize, len(b.Postings))

		batch := &pgx.Batch{}
		count := 0
		for _, p := range b.Postings[i:j] {
			if strings.TrimSpace(p.ApplyURL) == "" {
				continue
			}
			batch.Queue(`
INSERT INTO job_postings
  (run_id, search_key, from_cache, title, company, location, apply_url, platform, job_id, found_at, search_query)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (search_key, apply_url) DO NOTHING`,
				b.RunID, b.SearchKey, b.FromCache,
				p.Title, p.Company, p.Location, p.ApplyURL, p.Platform, p.JobID, p.FoundAt.UTC(), p.SearchQuery,
			)
			count++
		}

		br := s.Pool.SendBatch(ctx, batch)
		for k := 0; k < count; k++ {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return total, err
			}
			total += int(tag.RowsAffected())
		}
		if err := br.Close(); err != nil {
			return total, err
		}
	}
	return total, nil
}

func (s *PGSink) Close() error {
	s.Pool.Close()
	return nil
}
