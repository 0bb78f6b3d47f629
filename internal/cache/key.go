package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"atsscout-engine/internal/domain"
)

// KeyPrefix namespaces search result entries inside a shared key/value store.
const KeyPrefix = "search:"

// keyFields is the cache-relevant subset of a request. Field order here is
// the order in the hashed JSON and must not change.
type keyFields struct {
	Query            string `json:"query"`
	Location         string `json:"location"`
	PostedWithinDays int    `json:"postedWithinDays"`
	Country          string `json:"country"`
}

// Key derives the cache key for req. MaxResultsPerSource and ForceFresh do
// not take part.
func Key(req domain.SearchRequest) string {
	b, _ := json.Marshal(keyFields{
		Query:            req.Query,
		Location:         req.Location,
		PostedWithinDays: req.PostedWithinDays,
		Country:          req.Country,
	})
	sum := sha256.Sum256(b)
	return KeyPrefix + hex.EncodeToString(sum[:])
}
