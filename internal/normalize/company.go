package normalize

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"atsscout-engine/internal/domain"
	"atsscout-engine/internal/scrape/util"
)

// UnknownCompany is reported when no rule yields a name.
const UnknownCompany = "Unknown"

type companyRule func(u *url.URL) string

// Path-keyed boards put the company slug first in the path
// (boards.greenhouse.io/<slug>/jobs/<id>); host-keyed boards give each
// company its own subdomain (<slug>.recruitee.com).
var companyRules = map[domain.Platform]companyRule{
	"greenhouse.io":       greenhouseRule,
	"lever.co":            firstPathSegment(),
	"ashbyhq.com":         firstPathSegment(),
	"workable.com":        firstPathSegment(),
	"smartrecruiters.com": firstPathSegment(),
	"jobvite.com":         firstPathSegment(),
	"myworkdayjobs.com":   leftmostLabel(),
	"bamboohr.com":        leftmostLabel(),
	"breezy.hr":           leftmostLabel(),
	"recruitee.com":       leftmostLabel(),
	"teamtailor.com":      leftmostLabel(),
	"applytojob.com":      leftmostLabel(),
	"icims.com":           leftmostLabel("careers-", "jobs-"),
}

// InferCompany guesses the posting company from the URL. Parse failures and
// URLs no rule understands give UnknownCompany.
func InferCompany(p domain.Platform, raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return UnknownCompany
	}
	rule, ok := companyRules[p]
	if !ok {
		rule = genericRule
	}
	name := rule(u)
	if name == "" {
		return UnknownCompany
	}
	return util.CapitalizeFirst(name)
}

// Embedded boards live under /embed/<slug>/...; /embed/job_app is the shared
// application form and names no company in its path.
func greenhouseRule(u *url.URL) string {
	segs := util.PathSegments(u)
	if len(segs) > 0 && strings.EqualFold(segs[0], "embed") {
		segs = segs[1:]
	}
	if len(segs) == 0 || contains(greenhouseReserved, strings.ToLower(segs[0])) {
		return ""
	}
	return segs[0]
}

var greenhouseReserved = []string{"job_app", "job_board", "embed"}

func firstPathSegment(skip ...string) companyRule {
	return func(u *url.URL) string {
		for _, seg := range util.PathSegments(u) {
			if contains(skip, strings.ToLower(seg)) {
				continue
			}
			return seg
		}
		return ""
	}
}

func leftmostLabel(trimPrefixes ...string) companyRule {
	return func(u *url.URL) string {
		labels := strings.Split(strings.ToLower(u.Hostname()), ".")
		if len(labels) <= 2 {
			return ""
		}
		name := labels[0]
		for _, p := range trimPrefixes {
			name = strings.TrimPrefix(name, p)
		}
		return name
	}
}

// boilerplate subdomains that say nothing about the company
var genericLabels = []string{"www", "jobs", "careers", "boards", "job-boards", "apply", "app", "hire"}

// genericRule serves platforms without a dedicated rule: a meaningful
// subdomain wins, otherwise the first path segment.
func genericRule(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	if site, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil && site != host {
		first := strings.SplitN(strings.TrimSuffix(host, "."+site), ".", 2)[0]
		if !contains(genericLabels, first) {
			return first
		}
	}
	return firstPathSegment()(u)
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
