package models

import "time"

// ArchiveEntry is the read-optimized projection of a persisted session used
// by archive search. Derived from the session at persist time, never mutated
// independently of it.
type ArchiveEntry struct {
	SessionID    string    `json:"session_id"`
	OwnerRef     string    `json:"owner_ref"`
	SeedTopic    string    `json:"seed_topic"`
	IndexedTerms []string  `json:"indexed_terms"`
	Tags         []string  `json:"tags,omitempty"`
	StartedAt    time.Time `json:"started_at"`
}

// SearchHit pairs a session ID with its relevance score. Results are ordered
// by score descending, ties broken by session start time descending.
type SearchHit struct {
	SessionID string  `json:"session_id"`
	Score     float64 `json:"score"`
}

// SearchResult is one archive search result as exposed over the API: the hit
// plus enough entry context to render a result row without a second fetch.
type SearchResult struct {
	SessionID string    `json:"session_id"`
	SeedTopic string    `json:"seed_topic"`
	Score     float64   `json:"score"`
	Tags      []string  `json:"tags,omitempty"`
	StartedAt time.Time `json:"started_at"`
}
