package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// NewMux returns the raw mux so main() can still attach /shutdown (needs srv+token).
func NewMux(d Deps) *http.ServeMux {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: HealthHandler{Hub: d.Hub, CfgVal: d.CfgVal}.Health,
	}))

	// Search runs
	sh := SearchHandler{Runner: d.Runner, RunStatus: d.RunStatus, Logger: d.Logger.Named("http.search")}
	mux.HandleFunc("/search", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.Run,
	}))
	mux.HandleFunc("/search/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: sh.Status,
	}))

	// Stored output
	ph := PostingsHandler{Postings: d.Postings}
	mux.HandleFunc("/postings", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ph.List,
	}))
	dh := DebugHandler{Pages: d.Debug}
	mux.HandleFunc("/debug/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: dh.GetByPath, // expects /debug/{platform}
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	mux.HandleFunc("/secrets/search-token", methodMux(map[string]http.HandlerFunc{
		http.MethodPost:   SecretsHandler{}.SetSearchToken,
		http.MethodDelete: SecretsHandler{}.DeleteSearchToken,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	if d.DB != nil {
		mux.HandleFunc("/db/checkpoint", methodMux(map[string]http.HandlerFunc{
			http.MethodPost: DBHandler{DB: d.DB}.Checkpoint,
		}))
	}

	return mux
}

// NewHandler wraps NewMux with the standard middleware chain.
func NewHandler(d Deps) http.Handler {
	lg := d.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	return Chain(NewMux(d), RequestID, Recover(lg), AccessLog(lg), Cors)
}
