package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"atsscout-engine/internal/domain"
	"atsscout-engine/internal/pipeline"
)

// SearchHandler runs one request at a time; runs are long and the
// backends are rate limited.
type SearchHandler struct {
	Runner    Runner
	RunStatus *atomic.Value // httpapi.RunStatus
	Logger    *zap.Logger
}

func (h SearchHandler) Status(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.RunStatus.Load().(RunStatus))
}

func (h SearchHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req domain.SearchRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		WriteError(w, r, CodeInvalidJSON, "invalid JSON: "+err.Error())
		return
	}

	st := h.RunStatus.Load().(RunStatus)
	if st.Running {
		WriteError(w, r, CodeAlreadyRunning, "a search run is already in progress")
		return
	}
	running := RunStatus{
		LastRunAt: time.Now().Format(time.RFC3339),
		Running:   true,
		LastOkAt:  st.LastOkAt,
		LastRunID: st.LastRunID,
	}
	if !h.RunStatus.CompareAndSwap(st, running) {
		WriteError(w, r, CodeAlreadyRunning, "a search run is already in progress")
		return
	}

	res, err := h.Runner.Run(r.Context(), req)

	now := time.Now().Format(time.RFC3339)
	next := h.RunStatus.Load().(RunStatus)
	next.Running = false
	next.LastRunAt = now
	next.LastRunID = res.RunID
	next.LastCount = len(res.Postings)
	if err != nil {
		next.LastError = err.Error()
	} else {
		next.LastError = ""
		next.LastOkAt = now
	}
	h.RunStatus.Store(next)

	switch {
	case errors.Is(err, pipeline.ErrMissingQuery):
		WriteError(w, r, CodeMissingQuery, err.Error())
	case err != nil && r.Context().Err() != nil:
		WriteError(w, r, CodeCanceled, "run canceled")
	case err != nil && res.RunID == "":
		WriteError(w, r, CodeRunFailed, err.Error())
	case err != nil:
		// Postings were produced; cache or output write failed.
		h.Logger.Warn("run finished with output error", zap.String("run_id", res.RunID), zap.Error(err))
		WriteJSON(w, http.StatusOK, searchResponse{Result: res, Warning: err.Error()})
	default:
		WriteJSON(w, http.StatusOK, searchResponse{Result: res})
	}
}
