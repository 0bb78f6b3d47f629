package search

import (
	"github.com/PuerkitoBio/goquery"

	"atsscout-engine/internal/domain"
	"atsscout-engine/internal/scrape/util"
)

// Selector pulls candidate hits out of a results page. Candidates carry the
// raw href; unwrapping and filtering happen after a selector wins.
type Selector struct {
	Name    string
	Extract func(doc *goquery.Document) []domain.RawSearchResult
}

// DefaultSelectors is tried in order; the first selector returning any
// candidate wins. Results pages change markup often, so newer layouts lead.
var DefaultSelectors = []Selector{
	{Name: "div.g", Extract: blockSelector("div.g", "h3", "a[href]")},
	{Name: "div.yuRUbf", Extract: blockSelector("div.yuRUbf", "h3", "a[href]")},
	{Name: "a:has(h3)", Extract: anchorWithHeading},
	{Name: "div.Gx5Zad", Extract: blockSelector("div.Gx5Zad", "h3, div.vvjwJb", "a[href]")},
}

// blockSelector reads one result per block: title from the first titleSel
// match, link from the first linkSel match.
func blockSelector(block, titleSel, linkSel string) func(*goquery.Document) []domain.RawSearchResult {
	return func(doc *goquery.Document) []domain.RawSearchResult {
		var out []domain.RawSearchResult
		doc.Find(block).Each(func(_ int, s *goquery.Selection) {
			title := util.CleanText(s.Find(titleSel).First().Text())
			href, _ := s.Find(linkSel).First().Attr("href")
			if c, ok := candidate(title, href); ok {
				out = append(out, c)
			}
		})
		return out
	}
}

func anchorWithHeading(doc *goquery.Document) []domain.RawSearchResult {
	var out []domain.RawSearchResult
	doc.Find("a:has(h3)").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if c, ok := candidate(util.CleanText(a.Find("h3").First().Text()), href); ok {
			out = append(out, c)
		}
	})
	return out
}

func candidate(title, href string) (domain.RawSearchResult, bool) {
	if title == "" || href == "" {
		return domain.RawSearchResult{}, false
	}
	return domain.RawSearchResult{Title: title, URL: href}, true
}

// RunSelectors walks chain and returns the winning selector's candidates.
// name is empty when nothing matched.
func RunSelectors(doc *goquery.Document, chain []Selector) (name string, cands []domain.RawSearchResult) {
	for _, sel := range chain {
		if cands = sel.Extract(doc); len(cands) > 0 {
			return sel.Name, cands
		}
	}
	return "", nil
}

// acceptCandidates keeps hits with a title and an absolute link, unwrapping
// /url?q= redirect links first.
func acceptCandidates(cands []domain.RawSearchResult) []domain.RawSearchResult {
	out := make([]domain.RawSearchResult, 0, len(cands))
	for _, c := range cands {
		if c.Title == "" || c.URL == "" {
			continue
		}
		link := util.UnwrapRedirect(c.URL)
		if !util.IsAbsoluteURL(link) {
			continue
		}
		out = append(out, domain.RawSearchResult{Title: c.Title, URL: link})
	}
	return out
}
