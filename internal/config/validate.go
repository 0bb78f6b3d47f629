package config

import (
	"fmt"
	"net/url"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy of cfg together with what
// is wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	// Normalize common lists. Platform order is kept; it is the run order.
	out.Platforms = trimList(out.Platforms)
	for i, p := range out.Platforms {
		out.Platforms[i] = strings.ToLower(p)
	}
	out.Direct.Proxies = trimList(out.Direct.Proxies)
	out.Search.Mode = strings.ToLower(strings.TrimSpace(out.Search.Mode))
	out.Output.Driver = strings.ToLower(strings.TrimSpace(out.Output.Driver))
	out.Search.Location = strings.TrimSpace(out.Search.Location)

	// ---- Validation rules ----

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	switch out.Search.Mode {
	case "direct", "delegated":
	case "":
		out.Search.Mode = "direct"
	default:
		res.addErr("search.mode must be direct or delegated, got %q", out.Search.Mode)
	}

	if out.Search.MaxResultsPerSource < 0 {
		res.addErr("search.max_results_per_source must be >= 0")
	} else if out.Search.MaxResultsPerSource > 100 {
		res.addWarn("search.max_results_per_source is %d; backends return at most 100 per query.", out.Search.MaxResultsPerSource)
	}
	if out.Search.FreshnessHours <= 0 {
		res.addErr("search.freshness_hours must be > 0")
	}

	for i, p := range out.Platforms {
		if strings.ContainsAny(p, " /:") {
			res.addErr("platforms[%d] must be a bare domain like greenhouse.io, got %q", i, p)
		}
	}

	// direct sanity
	if out.Direct.Attempts <= 0 {
		res.addErr("direct.attempts must be > 0")
	}
	if out.Direct.BackoffMS < 0 {
		res.addErr("direct.backoff_ms must be >= 0")
	}
	if out.Direct.ReqPerSec > 2 {
		res.addWarn("direct.req_per_sec is high (%.2f) and will likely trip captchas.", out.Direct.ReqPerSec)
	}
	for i, p := range out.Direct.Proxies {
		u, err := url.Parse(p)
		if err != nil || u.Scheme == "" || u.Host == "" {
			res.addErr("direct.proxies[%d] is not an absolute proxy url: %q", i, p)
		}
	}

	// delegated required fields if selected (token not required here; it's in keychain or env)
	if out.Search.Mode == "delegated" {
		if strings.TrimSpace(out.Delegated.BaseURL) == "" {
			res.addErr("delegated.base_url is required when search.mode=delegated")
		}
		if strings.TrimSpace(out.Delegated.Actor) == "" {
			res.addErr("delegated.actor is required when search.mode=delegated")
		}
	}

	if out.Cost.StartCost < 0 || out.Cost.PerResultCost < 0 {
		res.addErr("cost.start_cost and cost.per_result_cost must be >= 0")
	}
	if out.Cost.PerResultCost == 0 {
		res.addWarn("cost.per_result_cost is 0; a cost ceiling will never stop a run.")
	}

	switch out.Output.Driver {
	case OutputSQLite:
	case "":
		out.Output.Driver = OutputSQLite
	case OutputPostgres:
		if strings.TrimSpace(out.Output.DSN) == "" {
			res.addErr("output.dsn is required when output.driver=postgres")
		}
	case OutputNDJSON:
		if strings.TrimSpace(out.Output.Path) == "" {
			res.addErr("output.path is required when output.driver=ndjson")
		}
	default:
		res.addErr("output.driver must be sqlite, postgres or ndjson, got %q", out.Output.Driver)
	}

	// watches
	for i := range out.Watches {
		w := &out.Watches[i]
		w.Query = strings.TrimSpace(w.Query)
		w.Location = strings.TrimSpace(w.Location)
		if w.Query == "" {
			res.addErr("watches[%d].query is required", i)
		}
		if w.PostedWithinDays < 0 {
			res.addErr("watches[%d].posted_within_days must be >= 0", i)
		}
	}
	if len(out.Watches) > 0 {
		if out.Polling.WatchSeconds <= 0 {
			res.addErr("polling.watch_seconds must be > 0 when watches are configured")
		} else if out.Polling.WatchSeconds < 600 {
			res.addWarn("polling.watch_seconds is very low (%d); most runs will be cache hits.", out.Polling.WatchSeconds)
		}
	}

	return out, res
}
