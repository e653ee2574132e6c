// Package models defines data types for the knowledge exploration engine.
package models

// Topic is a concept identity. Norm is the canonical form used for
// deduplication; Display preserves the text as the user or provider wrote it.
type Topic struct {
	Norm    string `json:"norm"`
	Display string `json:"display"`
}

// Equal reports whether two topics name the same concept.
func (t Topic) Equal(other Topic) bool { return t.Norm == other.Norm }
