package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubFanOutAndReplay(t *testing.T) {
	h := NewHub(2)
	h.Notify("r1", "run_started", map[string]any{"query": "go"})
	h.Notify("r1", "platform_done", nil)
	h.Notify("r1", "run_finished", map[string]int{"count": 3})

	ch := h.Subscribe()
	defer h.Unsubscribe(ch)
	assert.Equal(t, 1, h.Subscribers())

	// only the last two are replayed
	assert.Equal(t, "platform_done", (<-ch).Type)
	last := <-ch
	assert.Equal(t, "run_finished", last.Type)
	assert.Equal(t, "r1", last.RunID)
	assert.JSONEq(t, `{"count":3}`, string(last.Data))

	h.Notify("r2", "run_started", nil)
	assert.Equal(t, "r2", (<-ch).RunID)
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	h := NewHub(0)
	ch := h.Subscribe()
	for i := 0; i < 100; i++ {
		h.Notify("r", "platform_done", i)
	}
	assert.Len(t, ch, cap(ch))

	h.Unsubscribe(ch)
	h.Unsubscribe(ch)
	assert.Equal(t, 0, h.Subscribers())
}

func TestEventString(t *testing.T) {
	e := MakeEvent("run-9", "cost_stopped", Version, map[string]float64{"accumulated": 0.02})
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(e.String()), &m))
	assert.Equal(t, "cost_stopped", m["type"])
	assert.Equal(t, "run-9", m["run_id"])
	assert.EqualValues(t, 1, m["v"])
	assert.Nil(t, MakeEvent("", "x", 1, nil).Data)
}
