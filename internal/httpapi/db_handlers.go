package httpapi

import (
	"database/sql"
	"net"
	"net/http"
)

type DBHandler struct {
	DB *sql.DB
}

// CheckpointResult mirrors the row returned by PRAGMA wal_checkpoint.
type CheckpointResult struct {
	Busy         bool `json:"busy"`
	LogFrames    int  `json:"logFrames"`
	Checkpointed int  `json:"checkpointed"`
}

// Checkpoint folds the WAL back into the posting database before a backup
// or copy. Loopback callers only.
func (h DBHandler) Checkpoint(w http.ResponseWriter, r *http.Request) {
	if !isLoopback(r) {
		WriteError(w, r, CodeForbidden, "checkpoint is only allowed from loopback")
		return
	}

	var busy int
	var out CheckpointResult
	err := h.DB.QueryRowContext(r.Context(), `PRAGMA wal_checkpoint(FULL);`).
		Scan(&busy, &out.LogFrames, &out.Checkpointed)
	if err != nil {
		WriteError(w, r, CodeDBError, err.Error())
		return
	}
	out.Busy = busy != 0
	WriteJSON(w, http.StatusOK, out)
}

func isLoopback(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
