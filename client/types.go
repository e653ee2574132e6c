package client

import "time"

// Topic is a normalized concept name plus its display form.
type Topic struct {
	Norm    string `json:"norm"`
	Display string `json:"display"`
}

// SessionInfo describes a freshly opened live session.
type SessionInfo struct {
	ID        string    `json:"id"`
	RootID    string    `json:"root_id"`
	SeedTopic Topic     `json:"seed_topic"`
	StartedAt time.Time `json:"started_at"`
	Tags      []string  `json:"tags,omitempty"`
}

// SnapshotNode is one node in a tree snapshot.
type SnapshotNode struct {
	ID         string   `json:"id"`
	Topic      Topic    `json:"topic"`
	ParentID   string   `json:"parent_id,omitempty"`
	ChildIDs   []string `json:"child_ids"`
	CrossLinks []string `json:"cross_links,omitempty"`
	DwellMs    int64    `json:"dwell_ms"`
}

// TreeSnapshot is the full renderer projection of a knowledge tree.
type TreeSnapshot struct {
	RootID string         `json:"root_id"`
	Nodes  []SnapshotNode `json:"nodes"`
}

// ExpandResult reports the outcome of one expansion.
type ExpandResult struct {
	NodeID     string    `json:"node_id"`
	Accepted   []Topic   `json:"accepted"`
	CrossLinks []string  `json:"cross_links,omitempty"`
	ExpandedAt time.Time `json:"expanded_at"`
}

// SessionMeta is the lightweight listing row for session history.
type SessionMeta struct {
	ID           string    `json:"id"`
	OwnerRef     string    `json:"owner_ref"`
	SeedTopic    string    `json:"seed_topic"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
	TopicCount   int       `json:"topic_count"`
	TotalDwellMs int64     `json:"total_dwell_ms"`
	Tags         []string  `json:"tags,omitempty"`
}

// Session is one fully persisted exploration session.
type Session struct {
	ID           string           `json:"id"`
	OwnerRef     string           `json:"owner_ref"`
	StartedAt    time.Time        `json:"started_at"`
	EndedAt      *time.Time       `json:"ended_at,omitempty"`
	Tree         TreeSnapshot     `json:"tree"`
	PerNodeDwell map[string]int64 `json:"per_node_dwell"`
	Tags         []string         `json:"tags,omitempty"`
}

// SearchResult is one archive search hit.
type SearchResult struct {
	SessionID string    `json:"session_id"`
	SeedTopic string    `json:"seed_topic"`
	Score     float64   `json:"score"`
	Tags      []string  `json:"tags,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// StartSessionRequest opens a new session.
type StartSessionRequest struct {
	SeedTopic string   `json:"seed_topic"`
	Tags      []string `json:"tags,omitempty"`
}

// SeedSessionRequest opens a session from a document.
type SeedSessionRequest struct {
	Content  string   `json:"content"`
	MimeType string   `json:"mime_type"`
	Tags     []string `json:"tags,omitempty"`
}

// SeedSessionResponse pairs the opened session with its extracted seeds.
type SeedSessionResponse struct {
	Session *SessionInfo `json:"session"`
	Seeds   []string     `json:"seeds"`
}

// HealthResponse is the liveness check payload.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	Provider      string  `json:"provider"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// StatsResponse is the aggregate stats payload.
type StatsResponse struct {
	PersistedSessions int64 `json:"persisted_sessions"`
	PersistedTopics   int64 `json:"persisted_topics"`
	LiveSessions      int   `json:"live_sessions"`
	WSClients         int   `json:"ws_clients"`
}
