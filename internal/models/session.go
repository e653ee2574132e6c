package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is one bounded exploration episode. While live it is mutated by
// expansion and focus tracking; once persisted it is immutable.
type Session struct {
	ID           string           `json:"id"`
	OwnerRef     string           `json:"owner_ref"`
	StartedAt    time.Time        `json:"started_at"`
	EndedAt      *time.Time       `json:"ended_at,omitempty"`
	Tree         TreeSnapshot     `json:"tree"`
	PerNodeDwell map[string]int64 `json:"per_node_dwell"`
	Tags         []string         `json:"tags,omitempty"`
}

// Ended reports whether the session has been closed.
func (s *Session) Ended() bool { return s.EndedAt != nil }

// TopicCount returns the number of explored concepts in the snapshot.
func (s *Session) TopicCount() int { return len(s.Tree.Nodes) }

// TotalDwellMs sums dwell time across all nodes.
func (s *Session) TotalDwellMs() int64 {
	var total int64
	for _, ms := range s.PerNodeDwell {
		total += ms
	}

	return total
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

// SessionInfo describes a freshly opened live session.
type SessionInfo struct {
	ID        string    `json:"id"`
	RootID    string    `json:"root_id"`
	SeedTopic Topic     `json:"seed_topic"`
	StartedAt time.Time `json:"started_at"`
	Tags      []string  `json:"tags,omitempty"`
}

// StartSessionRequest is the payload for opening a new session.
type StartSessionRequest struct {
	SeedTopic string   `json:"seed_topic"`
	Tags      []string `json:"tags,omitempty"`
}

// Validate checks required fields and fills defaults on StartSessionRequest.
func (r *StartSessionRequest) Validate() error {
	if r.SeedTopic == "" {
		return ErrInvalidTopic
	}

	if len(r.SeedTopic) > 500 {
		return ErrFieldTooLong("seed_topic", 500)
	}

	for _, tag := range r.Tags {
		if len(tag) > 100 {
			return ErrFieldTooLong("tag", 100)
		}
	}

	return nil
}

// SeedSessionRequest is the payload for opening a session from a document.
type SeedSessionRequest struct {
	Content  string   `json:"content"`
	MimeType string   `json:"mime_type"`
	Tags     []string `json:"tags,omitempty"`
}

// Validate checks required fields on SeedSessionRequest.
func (r *SeedSessionRequest) Validate() error {
	if r.Content == "" {
		return ErrInvalidTopic
	}

	for _, tag := range r.Tags {
		if len(tag) > 100 {
			return ErrFieldTooLong("tag", 100)
		}
	}

	return nil
}

// ExpandRequest is the payload for expanding a node.
type ExpandRequest struct {
	NodeID string `json:"node_id"`
	Depth  int    `json:"depth,omitempty"`
}

// FocusRequest is the payload for moving focus to a node. AtMs is the
// caller's millisecond timestamp; zero means the server clock.
type FocusRequest struct {
	NodeID string `json:"node_id"`
	AtMs   int64  `json:"at_ms,omitempty"`
}

// TimestampRequest carries just a caller timestamp, for blur and end.
type TimestampRequest struct {
	AtMs int64 `json:"at_ms,omitempty"`
}

// NewSessionID generates a fresh session identifier.
func NewSessionID() string { return uuid.New().String() }
