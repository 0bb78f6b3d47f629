package httpapi

import (
	"encoding/json"
	"net/http"

	"atsscout-engine/internal/secrets"
)

type SecretsHandler struct{}

type setSearchTokenReq struct {
	Token string `json:"token"`
}

func (h SecretsHandler) SetSearchToken(w http.ResponseWriter, r *http.Request) {
	var req setSearchTokenReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, CodeInvalidJSON, "invalid json")
		return
	}
	if err := secrets.SetSearchToken(req.Token); err != nil {
		WriteError(w, r, CodeKeychain, "failed to store token: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h SecretsHandler) DeleteSearchToken(w http.ResponseWriter, r *http.Request) {
	if err := secrets.DeleteSearchToken(); err != nil {
		WriteError(w, r, CodeKeychain, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
