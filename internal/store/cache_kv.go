package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"atsscout-engine/internal/cache"
)

// CacheStore keeps cache entries as JSON blobs in the kv table.
type CacheStore struct {
	DB *sql.DB
}

func (s CacheStore) Get(ctx context.Context, key string) (cache.Entry, bool, error) {
	var raw string
	err := s.DB.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ? LIMIT 1;`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return cache.Entry{}, false, nil
	}
	if err != nil {
		return cache.Entry{}, false, err
	}

	var e cache.Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return cache.Entry{}, false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return e, true, nil
}

// Set replaces the whole value for key.
func (s CacheStore) Set(ctx context.Context, key string, e cache.Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `
INSERT INTO kv(key, value, written_at)
VALUES(?,?,?)
ON CONFLICT(key) DO UPDATE SET
  value = excluded.value,
  written_at = excluded.written_at;
`, key, string(b), time.Now().UTC().Format(time.RFC3339))
	return err
}
