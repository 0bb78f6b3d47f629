package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"atsscout-engine/internal/domain"
)

// PostingSink appends each run's postings to the postings table.
type PostingSink struct {
	DB *sql.DB
}

func (s PostingSink) Append(ctx context.Context, b domain.OutputBatch) error {
	if len(b.Postings) == 0 {
		return nil
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO postings(run_id, search_key, from_cache, title, company, location, apply_url, platform, job_id, found_at, search_query)
VALUES(?,?,?,?,?,?,?,?,?,?,?);`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range b.Postings {
		var jobID sql.NullString
		if p.JobID != nil {
			jobID = sql.NullString{String: *p.JobID, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			b.RunID,
			b.SearchKey,
			b.FromCache,
			p.Title,
			p.Company,
			p.Location,
			p.ApplyURL,
			p.Platform,
			jobID,
			p.FoundAt.UTC().Format(time.RFC3339Nano),
			p.SearchQuery,
		); err != nil {
			return fmt.Errorf("insert posting %s: %w", p.ApplyURL, err)
		}
	}
	return tx.Commit()
}

type ListPostingsOpts struct {
	RunID string // empty lists all runs
	Limit int
}

// StoredPosting is a posting row together with the run that emitted it.
type StoredPosting struct {
	ID        int64             `json:"id"`
	RunID     string            `json:"runId"`
	FromCache bool              `json:"fromCache"`
	Posting   domain.JobPosting `json:"posting"`
}

// List returns postings newest first.
func (s PostingSink) List(ctx context.Context, opts ListPostingsOpts) ([]StoredPosting, error) {
	if opts.Limit <= 0 || opts.Limit > 2000 {
		opts.Limit = 200
	}

	where := ""
	args := []any{}
	if opts.RunID != "" {
		where = "WHERE run_id = ?"
		args = append(args, opts.RunID)
	}
	args = append(args, opts.Limit)

	query := fmt.Sprintf(`
SELECT id, run_id, from_cache, title, company, location, apply_url, platform, job_id, found_at, search_query
FROM postings
%s
ORDER BY id DESC
LIMIT ?;
`, where)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []StoredPosting{}
	for rows.Next() {
		var (
			sp      StoredPosting
			jobID   sql.NullString
			foundAt string
		)
		if err := rows.Scan(
			&sp.ID,
			&sp.RunID,
			&sp.FromCache,
			&sp.Posting.Title,
			&sp.Posting.Company,
			&sp.Posting.Location,
			&sp.Posting.ApplyURL,
			&sp.Posting.Platform,
			&jobID,
			&foundAt,
			&sp.Posting.SearchQuery,
		); err != nil {
			return nil, err
		}
		if jobID.Valid {
			id := jobID.String
			sp.Posting.JobID = &id
		}
		sp.Posting.FoundAt, _ = time.Parse(time.RFC3339Nano, foundAt)
		out = append(out, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
