package store

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"atsscout-engine/internal/domain"
)

// max bytes kept per page (protect DB)
const maxDebugPage = 2 << 20

// DebugPages keeps the last results page per platform that no selector
// understood.
type DebugPages struct {
	DB *sql.DB
}

type DebugPage struct {
	Platform    domain.Platform
	ContentType string
	Body        []byte
	SavedAt     time.Time
}

func DebugKey(p domain.Platform) string { return "debug-" + string(p) }

func (s DebugPages) SaveDebugPage(ctx context.Context, p domain.Platform, body []byte) error {
	if len(body) > maxDebugPage {
		body = body[:maxDebugPage]
	}
	ct := http.DetectContentType(body)
	_, err := s.DB.ExecContext(ctx, `
INSERT OR REPLACE INTO debug_pages(key, platform, content_type, bytes, saved_at)
VALUES(?,?,?,?,?);`,
		DebugKey(p),
		string(p),
		ct,
		body,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// Get returns ok=false when nothing was saved for p.
func (s DebugPages) Get(ctx context.Context, p domain.Platform) (DebugPage, bool, error) {
	var (
		pg      DebugPage
		savedAt string
	)
	err := s.DB.QueryRowContext(ctx,
		`SELECT platform, content_type, bytes, saved_at FROM debug_pages WHERE key = ? LIMIT 1;`,
		DebugKey(p),
	).Scan(&pg.Platform, &pg.ContentType, &pg.Body, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return DebugPage{}, false, nil
	}
	if err != nil {
		return DebugPage{}, false, err
	}
	pg.SavedAt, _ = time.Parse(time.RFC3339, savedAt)
	return pg, true, nil
}
