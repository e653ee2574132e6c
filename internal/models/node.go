package models

import "time"

// SnapshotNode is the read-only projection of one tree node, as exposed to
// the renderer. ChildIDs preserve insertion order; CrossLinks point at nodes
// that own a concept this node's expansion re-suggested.
type SnapshotNode struct {
	ID         string   `json:"id"`
	Topic      Topic    `json:"topic"`
	ParentID   string   `json:"parent_id,omitempty"`
	ChildIDs   []string `json:"child_ids"`
	CrossLinks []string `json:"cross_links,omitempty"`
	DwellMs    int64    `json:"dwell_ms"`
}

// TreeSnapshot is the full renderer contract: every node plus the root handle.
type TreeSnapshot struct {
	RootID string         `json:"root_id"`
	Nodes  []SnapshotNode `json:"nodes"`
}

// Candidate is one suggestion returned by an AI suggestion provider,
// in provider rank order.
type Candidate struct {
	Topic     string `json:"topic"`
	Rationale string `json:"rationale,omitempty"`
}

// SuggestionRequest is the engine's query to a suggestion provider.
// ContextPath is the topic path from the root to the node being expanded;
// richer context yields less redundant suggestions.
type SuggestionRequest struct {
	Topic       string   `json:"topic"`
	ContextPath []string `json:"context_path"`
	MaxResults  int      `json:"max_results"`
	Depth       int      `json:"depth"`
}

// ExpandResult reports the outcome of one expansion: accepted topics in
// provider rank order, plus cross-links recorded for duplicates.
type ExpandResult struct {
	NodeID     string    `json:"node_id"`
	Accepted   []Topic   `json:"accepted"`
	CrossLinks []string  `json:"cross_links,omitempty"`
	ExpandedAt time.Time `json:"expanded_at"`
}
