package httpapi

import (
	"encoding/json"
	"net/http"
)

// ErrorCode is the stable, machine-readable part of an error response.
// Each code carries its own HTTP status.
type ErrorCode string

const (
	CodeInvalidJSON       ErrorCode = "invalid_json"
	CodeMissingQuery      ErrorCode = "missing_query"
	CodeMissingPlatform   ErrorCode = "missing_platform"
	CodeSaveFailed        ErrorCode = "save_failed"
	CodeForbidden         ErrorCode = "forbidden"
	CodeNotFound          ErrorCode = "not_found"
	CodeMethodNotAllowed  ErrorCode = "method_not_allowed"
	CodeAlreadyRunning    ErrorCode = "already_running"
	CodeInternal          ErrorCode = "internal_error"
	CodeRunFailed         ErrorCode = "run_failed"
	CodeDBError           ErrorCode = "db_error"
	CodeReloadFailed      ErrorCode = "reload_failed"
	CodeKeychain          ErrorCode = "keychain_error"
	CodeStreamUnsupported ErrorCode = "stream_unsupported"
	CodeNoPostingStore    ErrorCode = "no_posting_store"
	CodeCanceled          ErrorCode = "canceled"
)

var codeStatus = map[ErrorCode]int{
	CodeInvalidJSON:       http.StatusBadRequest,
	CodeMissingQuery:      http.StatusBadRequest,
	CodeMissingPlatform:   http.StatusBadRequest,
	CodeSaveFailed:        http.StatusBadRequest,
	CodeForbidden:         http.StatusForbidden,
	CodeNotFound:          http.StatusNotFound,
	CodeMethodNotAllowed:  http.StatusMethodNotAllowed,
	CodeAlreadyRunning:    http.StatusConflict,
	CodeNoPostingStore:    http.StatusNotImplemented,
	CodeCanceled:          http.StatusServiceUnavailable,
}

// Status returns the HTTP status sent with c; unknown codes are 500.
func (c ErrorCode) Status() int {
	if s, ok := codeStatus[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

type ErrorBody struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id,omitempty"`
}

type APIError struct {
	Error ErrorBody `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError sends code with its status, tagged with the request's ID.
func WriteError(w http.ResponseWriter, r *http.Request, code ErrorCode, message string) {
	WriteJSON(w, code.Status(), APIError{Error: ErrorBody{
		Code:      code,
		Message:   message,
		RequestID: RequestIDFrom(r.Context()),
	}})
}
