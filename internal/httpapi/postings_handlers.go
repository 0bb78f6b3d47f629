package httpapi

import (
	"net/http"

	"atsscout-engine/internal/store"
)

type PostingsHandler struct {
	Postings PostingLister
}

func (h PostingsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Postings == nil {
		WriteError(w, r, CodeNoPostingStore, "postings are only queryable with the sqlite output driver")
		return
	}
	items, err := h.Postings.List(r.Context(), store.ListPostingsOpts{
		RunID: r.URL.Query().Get("run_id"),
		Limit: intParam(r, "limit", 200),
	})
	if err != nil {
		WriteError(w, r, CodeDBError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, items)
}
