package httpapi

import (
	"net/http"
	"strings"

	"atsscout-engine/internal/domain"
)

type DebugHandler struct {
	Pages DebugPageReader
}

// GetByPath serves the last unparseable results page kept for a platform.
func (h DebugHandler) GetByPath(w http.ResponseWriter, r *http.Request) {
	platform := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/debug/"))
	if platform == "" {
		WriteError(w, r, CodeMissingPlatform, "missing platform")
		return
	}
	if h.Pages == nil {
		WriteError(w, r, CodeNotFound, "no debug page for "+platform)
		return
	}

	pg, ok, err := h.Pages.Get(r.Context(), domain.Platform(platform))
	if err != nil {
		WriteError(w, r, CodeDBError, err.Error())
		return
	}
	if !ok {
		WriteError(w, r, CodeNotFound, "no debug page for "+platform)
		return
	}

	ct := pg.ContentType
	if ct == "" {
		ct = "text/html; charset=utf-8"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", "no-store")
	if !pg.SavedAt.IsZero() {
		w.Header().Set("Last-Modified", pg.SavedAt.UTC().Format(http.TimeFormat))
	}
	_, _ = w.Write(pg.Body)
}
