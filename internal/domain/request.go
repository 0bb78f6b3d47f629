package domain

import (
	"fmt"
	"strings"
)

// DefaultLocation is used when a request leaves location empty.
const DefaultLocation = "Remote"

// SearchRequest holds the parameters of one run. It is not modified once the
// run starts.
type SearchRequest struct {
	Query               string `json:"query"`
	Location            string `json:"location"`
	PostedWithinDays    int    `json:"postedWithinDays"`
	MaxResultsPerSource int    `json:"maxResultsPerSource"`
	ForceFresh          bool   `json:"forceFresh"`
	Country             string `json:"country"`
}

// WithDefaults returns a trimmed copy with the location default applied.
func (r SearchRequest) WithDefaults() SearchRequest {
	r.Query = strings.TrimSpace(r.Query)
	r.Location = strings.TrimSpace(r.Location)
	if r.Location == "" {
		r.Location = DefaultLocation
	}
	r.Country = strings.TrimSpace(r.Country)
	if r.PostedWithinDays < 0 {
		r.PostedWithinDays = 0
	}
	return r
}

// Platform is an ATS hosting domain such as "greenhouse.io".
type Platform string

// DefaultPlatforms is the processing order used when config does not supply
// its own list.
var DefaultPlatforms = []Platform{
	"greenhouse.io",
	"lever.co",
	"ashbyhq.com",
	"workable.com",
	"smartrecruiters.com",
	"myworkdayjobs.com",
	"jobvite.com",
	"bamboohr.com",
	"breezy.hr",
	"recruitee.com",
	"teamtailor.com",
	"applytojob.com",
	"icims.com",
}

// Query renders the site-restricted search string for this platform.
func (p Platform) Query(query, location string) string {
	return fmt.Sprintf(`site:%s "%s" "%s"`, p, query, location)
}
