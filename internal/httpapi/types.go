package httpapi

import "atsscout-engine/internal/pipeline"

type RunStatus struct {
	LastRunAt string `json:"last_run_at"`
	LastOkAt  string `json:"last_ok_at"`
	LastError string `json:"last_error"`
	LastRunID string `json:"last_run_id"`
	LastCount int    `json:"last_count"`
	Running   bool   `json:"running"`
}

type searchResponse struct {
	pipeline.Result
	Warning string `json:"warning,omitempty"`
}
