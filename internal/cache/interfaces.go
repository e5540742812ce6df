// Package cache persists exchange-rate lookups as one JSON file per provider,
// with TTL-based expiration and ETag/Last-Modified metadata for conditional
// refreshes.
package cache

import "time"

// PairEntry is a single cached rate for a transaction -> payment pair
type PairEntry struct {
	Rate      float64   `json:"rate"`
	Timestamp time.Time `json:"timestamp"`
}

// PairTable maps transaction currency -> payment currency -> entry.
// Used by providers that need one request per currency pair.
type PairTable map[string]map[string]PairEntry

// Get returns the entry for a pair, if any
func (pt PairTable) Get(transaction, payment string) (PairEntry, bool) {
	row, ok := pt[transaction]
	if !ok {
		return PairEntry{}, false
	}
	e, ok := row[payment]
	return e, ok
}

// Set adds or overwrites a single pair, leaving every other pair untouched
func (pt PairTable) Set(transaction, payment string, e PairEntry) {
	row, ok := pt[transaction]
	if !ok {
		row = make(map[string]PairEntry)
		pt[transaction] = row
	}
	row[payment] = e
}

// Table is a full rate table relative to one base currency.
// Rates are expressed as units of currency per 1 unit of Base.
type Table struct {
	Base         string             `json:"base"`
	Rates        map[string]float64 `json:"rates"`
	ETag         string             `json:"etag,omitempty"`
	LastModified string             `json:"last_modified,omitempty"`
	Timestamp    time.Time          `json:"timestamp"`
}

// Store reads and writes JSON blobs keyed by provider id
type Store interface {
	// Load decodes the blob for id into v. It reports false when nothing is stored.
	Load(id string, v any) (bool, error)

	// Save replaces the blob for id with v
	Save(id string, v any) error
}

// Expired reports whether a timestamp is outside the trust window.
// A zero timestamp is always expired.
func Expired(ts time.Time, timeout time.Duration, now time.Time) bool {
	if ts.IsZero() {
		return true
	}
	return now.Sub(ts) >= timeout
}
