package ws

import (
	"encoding/json"
	"time"
)

// Event types pushed to renderer clients.
const (
	EventNodeAdded    = "node_added"
	EventNodeRemoved  = "node_removed"
	EventCrossLinked  = "cross_linked"
	EventFocusChanged = "focus_changed"
	EventSessionEnded = "session_ended"
)

// Event is one tree-change notification for a session's renderer clients.
type Event struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	Data      json.RawMessage `json:"data,omitempty"`
	Time      time.Time       `json:"time"`
}
