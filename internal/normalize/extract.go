// Package normalize turns raw search hits into JobPosting records.
package normalize

import (
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"atsscout-engine/internal/domain"
	"atsscout-engine/internal/scrape/util"
)

// Source describes where a raw result came from.
type Source struct {
	Platform domain.Platform
	Query    string // the site-restricted query sent to the backend
	Location string
}

// Extract builds a posting from raw. ok is false when the URL points back at
// the search engine or does not belong to the platform.
func Extract(raw domain.RawSearchResult, src Source, now time.Time) (domain.JobPosting, bool) {
	applyURL := util.CanonicalizeURL(strings.TrimSpace(raw.URL))
	if applyURL == "" {
		return domain.JobPosting{}, false
	}
	if IsSearchEngineURL(applyURL) {
		return domain.JobPosting{}, false
	}
	if !strings.Contains(strings.ToLower(applyURL), string(src.Platform)) {
		return domain.JobPosting{}, false
	}

	return domain.JobPosting{
		Title:       util.CleanText(raw.Title),
		Company:     InferCompany(src.Platform, applyURL),
		Location:    src.Location,
		ApplyURL:    applyURL,
		Platform:    string(src.Platform),
		JobID:       util.LastPathSegment(applyURL),
		FoundAt:     now.UTC(),
		SearchQuery: src.Query,
	}, true
}

// searchEngineDomains are matched on the host or any parent of it.
var searchEngineDomains = []string{"google.com", "googleusercontent.com", "bing.com", "duckduckgo.com"}

// searchEngineLabels catch country variants (google.co.uk, bing.de) by the
// leading label of the registrable domain.
var searchEngineLabels = []string{"google", "bing", "duckduckgo"}

// IsSearchEngineURL reports whether raw is hosted by a search engine, e.g.
// result-page navigation that leaked through extraction. Company subdomains
// on other hosts (google.wd5.myworkdayjobs.com) do not count.
func IsSearchEngineURL(raw string) bool {
	host := strings.TrimSuffix(util.Hostname(raw), ".")
	if host == "" {
		return false
	}
	for _, d := range searchEngineDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	site, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return false
	}
	label, _, _ := strings.Cut(site, ".")
	return contains(searchEngineLabels, label)
}
