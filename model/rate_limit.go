package model

import "time"

// RateLimitEntry is a fixed-window counter for a single `prefix:identity`
// key. Entries live only for the duration of their window and are removed
// by the store's periodic sweep. Count never decreases within a window; a
// new window always starts at count=1.
type RateLimitEntry struct {
	Key     string    `json:"key"`
	Count   int       `json:"count"`
	ResetAt time.Time `json:"reset_at"`
}
