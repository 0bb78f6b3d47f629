package domain

import "time"

// RawSearchResult is a (title, url) pair as surfaced by a search backend,
// before any normalization. URL may be empty, relative or a redirect wrapper.
type RawSearchResult struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// JobPosting is the output record. ApplyURL is the canonical URL and is the
// identity used for deduplication.
type JobPosting struct {
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	ApplyURL    string    `json:"applyUrl"`
	Platform    string    `json:"platform"`
	JobID       *string   `json:"jobId"`
	FoundAt     time.Time `json:"foundAt"`
	SearchQuery string    `json:"searchQuery"`
}

// OutputBatch is what a run hands to the output sink, once per run.
type OutputBatch struct {
	RunID     string
	SearchKey string
	FromCache bool
	Postings  []JobPosting
}
