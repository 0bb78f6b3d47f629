package cache

import (
	"context"
	"sync"
)

// Memory is an in-process Store. Entries are copied on the way in and out.
type Memory struct {
	mu    sync.RWMutex
	items map[string]Entry

	gets, sets int
}

func NewMemory() *Memory {
	return &Memory{items: map[string]Entry{}}
}

func (m *Memory) Get(_ context.Context, key string) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	e, ok := m.items[key]
	if !ok {
		return Entry{}, false, nil
	}
	return copyEntry(e), true, nil
}

func (m *Memory) Set(_ context.Context, key string, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.items[key] = copyEntry(e)
	return nil
}

// Stats returns the number of Get and Set calls served so far.
func (m *Memory) Stats() (gets, sets int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gets, m.sets
}

func copyEntry(e Entry) Entry {
	out := Entry{Timestamp: e.Timestamp}
	if e.Results != nil {
		out.Results = append(out.Results[:0:0], e.Results...)
	}
	return out
}
