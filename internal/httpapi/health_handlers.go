package httpapi

import (
	"net/http"
	"sync/atomic"

	"atsscout-engine/internal/config"
	"atsscout-engine/internal/events"
)

type HealthHandler struct {
	Hub    *events.Hub
	CfgVal *atomic.Value
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{"ok": true}
	if h.CfgVal != nil {
		if cfg, ok := h.CfgVal.Load().(config.Config); ok {
			out["mode"] = cfg.Search.Mode
			out["output"] = cfg.Output.Driver
		}
	}
	if h.Hub != nil {
		out["subscribers"] = h.Hub.Subscribers()
	}
	WriteJSON(w, http.StatusOK, out)
}
