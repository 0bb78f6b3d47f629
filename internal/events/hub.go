package events

import "sync"

// Hub fans events out to subscribers. Slow subscribers drop events rather
// than block a run.
type Hub struct {
	mu      sync.Mutex
	clients map[chan Event]struct{}
	recent  []Event
	keep    int
}

// NewHub keeps the last keep events for replay to new subscribers.
func NewHub(keep int) *Hub {
	return &Hub{clients: make(map[chan Event]struct{}), keep: keep}
}

// Subscribe returns a channel primed with the recent events.
func (h *Hub) Subscribe() chan Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan Event, 16+len(h.recent))
	for _, e := range h.recent {
		ch <- e
	}
	h.clients[ch] = struct{}{}
	return ch
}

func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; !ok {
		return
	}
	delete(h.clients, ch)
	close(ch)
}

func (h *Hub) Publish(evt Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.keep > 0 {
		h.recent = append(h.recent, evt)
		if len(h.recent) > h.keep {
			h.recent = h.recent[len(h.recent)-h.keep:]
		}
	}
	for ch := range h.clients {
		select {
		case ch <- evt:
		default:
			// drop if slow
		}
	}
}

// Notify publishes a run progress event. Its signature matches
// pipeline.Notifier.
func (h *Hub) Notify(runID, typ string, data any) {
	h.Publish(MakeEvent(runID, typ, Version, data))
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
