package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"atsscout-engine/internal/domain"
)

// NDJSONSink appends one JSON object per posting to a file. Each line
// carries the run id so several runs can share one file.
type NDJSONSink struct {
	Path string

	mu sync.Mutex
}

type ndjsonLine struct {
	RunID     string `json:"runId"`
	FromCache bool   `json:"fromCache"`
	domain.JobPosting
}

func (w *NDJSONSink) Append(_ context.Context, b domain.OutputBatch) error {
	if len(b.Postings) == 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.Path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	for _, p := range b.Postings {
		if err := enc.Encode(ndjsonLine{RunID: b.RunID, FromCache: b.FromCache, JobPosting: p}); err != nil {
			_ = f.Close()
			return fmt.Errorf("write %s: %w", w.Path, err)
		}
	}
	return f.Close()
}
