package store

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atsscout-engine/internal/cache"
	"atsscout-engine/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func samplePostings() []domain.JobPosting {
	id := "4012345"
	found := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []domain.JobPosting{
		{
			Title:       "Senior Go Engineer",
			Company:     "Acme",
			Location:    "Remote",
			ApplyURL:    "https://boards.greenhouse.io/acme/jobs/4012345",
			Platform:    "greenhouse.io",
			JobID:       &id,
			FoundAt:     found,
			SearchQuery: `site:greenhouse.io "go engineer" "Remote"`,
		},
		{
			Title:       "Platform Engineer",
			Company:     "Acme",
			Location:    "Remote",
			ApplyURL:    "https://jobs.lever.co/acme",
			Platform:    "lever.co",
			FoundAt:     found,
			SearchQuery: `site:lever.co "go engineer" "Remote"`,
		},
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db.Pool))

	var v int
	require.NoError(t, db.Pool.QueryRow(`PRAGMA user_version;`).Scan(&v))
	assert.Equal(t, schemaVersion, v)

	var cols []string
	rows, err := db.Pool.Query(`SELECT name FROM pragma_table_info('postings') ORDER BY cid;`)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		cols = append(cols, name)
	}
	require.NoError(t, rows.Err())
	assert.Contains(t, cols, "from_cache")
}

func TestCacheStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestDB(t).Cache()

	_, ok, err := s.Get(ctx, "search:missing")
	require.NoError(t, err)
	assert.False(t, ok)

	now := time.UnixMilli(1_700_000_000_000)
	require.NoError(t, s.Set(ctx, "search:k", cache.NewEntry(now, samplePostings())))

	got, ok, err := s.Get(ctx, "search:k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, now.UnixMilli(), got.Timestamp)
	require.Len(t, got.Results, 2)
	assert.Equal(t, "4012345", *got.Results[0].JobID)
	assert.Nil(t, got.Results[1].JobID)

	// overwrite replaces the whole entry
	require.NoError(t, s.Set(ctx, "search:k", cache.NewEntry(now.Add(time.Minute), nil)))
	got, ok, err = s.Get(ctx, "search:k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, got.Results)
	assert.Equal(t, now.Add(time.Minute).UnixMilli(), got.Timestamp)
}

func TestPostingSinkAppendAndList(t *testing.T) {
	ctx := context.Background()
	s := openTestDB(t).Postings()

	require.NoError(t, s.Append(ctx, domain.OutputBatch{RunID: "run-1", SearchKey: "search:a", Postings: samplePostings()}))
	require.NoError(t, s.Append(ctx, domain.OutputBatch{RunID: "run-2", SearchKey: "search:a", FromCache: true, Postings: samplePostings()[:1]}))
	require.NoError(t, s.Append(ctx, domain.OutputBatch{RunID: "run-3", SearchKey: "search:b"}))

	all, err := s.List(ctx, ListPostingsOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "run-2", all[0].RunID)
	assert.True(t, all[0].FromCache)

	run1, err := s.List(ctx, ListPostingsOpts{RunID: "run-1"})
	require.NoError(t, err)
	require.Len(t, run1, 2)
	assert.Equal(t, "https://jobs.lever.co/acme", run1[0].Posting.ApplyURL)
	assert.Nil(t, run1[0].Posting.JobID)
	assert.Equal(t, "lever.co", run1[0].Posting.Platform)
	require.NotNil(t, run1[1].Posting.JobID)
	assert.Equal(t, "4012345", *run1[1].Posting.JobID)
	assert.True(t, run1[1].Posting.FoundAt.Equal(samplePostings()[0].FoundAt))

	limited, err := s.List(ctx, ListPostingsOpts{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDebugPagesKeepLatestPerPlatform(t *testing.T) {
	ctx := context.Background()
	s := openTestDB(t).DebugPages()

	_, ok, err := s.Get(ctx, "lever.co")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SaveDebugPage(ctx, "lever.co", []byte("<html><body>first</body></html>")))
	require.NoError(t, s.SaveDebugPage(ctx, "lever.co", []byte("<html><body>second</body></html>")))

	pg, ok, err := s.Get(ctx, "lever.co")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(pg.Body), "second")
	assert.Equal(t, "text/html; charset=utf-8", pg.ContentType)
	assert.Equal(t, "debug-lever.co", DebugKey("lever.co"))
}

func TestNDJSONSinkAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "postings.ndjson")
	w := &NDJSONSink{Path: path}

	require.NoError(t, w.Append(context.Background(), domain.OutputBatch{RunID: "r1", Postings: samplePostings()}))
	require.NoError(t, w.Append(context.Background(), domain.OutputBatch{RunID: "r2", FromCache: true, Postings: samplePostings()[:1]}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		lines = append(lines, m)
	}
	require.NoError(t, sc.Err())
	require.Len(t, lines, 3)
	assert.Equal(t, "r1", lines[0]["runId"])
	assert.Equal(t, "https://boards.greenhouse.io/acme/jobs/4012345", lines[0]["applyUrl"])
	assert.Equal(t, true, lines[2]["fromCache"])
}

func TestLockDataDir(t *testing.T) {
	dir := t.TempDir()
	fl, err := LockDataDir(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = fl.Unlock() })

	_, err = LockDataDir(dir)
	assert.ErrorIs(t, err, ErrLocked)
}
