package util

import (
	"net/url"
	"strings"
)

// CanonicalizeURL drops the query string and fragment. A string that does not
// parse is returned unchanged so it still dedupes by its literal form.
func CanonicalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// PathSegments returns the non-empty segments of u's path.
func PathSegments(u *url.URL) []string {
	var out []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// LastPathSegment returns the final non-empty path segment of raw, or nil when
// the path has none or raw does not parse.
func LastPathSegment(raw string) *string {
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	segs := PathSegments(u)
	if len(segs) == 0 {
		return nil
	}
	last := segs[len(segs)-1]
	return &last
}

// UnwrapRedirect resolves search-engine redirect links of the form
// /url?q=<target>&... to their target. Other links are returned as is.
func UnwrapRedirect(href string) string {
	if !strings.HasPrefix(href, "/url?") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if q := u.Query().Get("q"); q != "" {
		return q
	}
	return href
}

// IsAbsoluteURL reports whether raw carries both a scheme and a host.
func IsAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// Hostname returns the lowercased host of raw without port, or "".
func Hostname(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
