// Package session holds live exploration sessions: the per-session knowledge
// tree, the dwell-time tracker, and the registry that serializes access.
package session

import (
	"time"

	"github.com/nodelearn/nodelearn/internal/models"
)

// Timer tracks active dwell time per node with a two-state model: Idle and
// Focused(nodeID). Transitions must be strictly chronological per session;
// out-of-order timestamps are rejected rather than corrupting totals.
type Timer struct {
	focusedNode string // "" means Idle
	lastAt      time.Time
	dwell       map[string]int64
}

// NewTimer creates an idle timer.
func NewTimer() *Timer {
	return &Timer{dwell: make(map[string]int64)}
}

// Focus flushes the current focus interval, then moves focus to nodeID at
// the given instant. Fails with models.ErrInvalidTimestamp when at precedes
// the last recorded transition.
func (t *Timer) Focus(nodeID string, at time.Time) error {
	if err := t.flush(at); err != nil {
		return err
	}

	t.focusedNode = nodeID

	return nil
}

// Blur flushes the current focus interval and moves to Idle. Used when the
// tab is hidden or the session pauses.
func (t *Timer) Blur(at time.Time) error {
	if err := t.flush(at); err != nil {
		return err
	}

	t.focusedNode = ""

	return nil
}

// Flush forces a final flush without changing state, for session end.
// Calling it repeatedly with the same instant accumulates nothing.
func (t *Timer) Flush(at time.Time) error {
	focused := t.focusedNode
	if err := t.flush(at); err != nil {
		return err
	}

	t.focusedNode = focused

	return nil
}

// FocusedNode returns the currently focused node id, or "" when idle.
func (t *Timer) FocusedNode() string { return t.focusedNode }

// DwellMs returns accumulated dwell for one node.
func (t *Timer) DwellMs(nodeID string) int64 { return t.dwell[nodeID] }

// PerNodeDwell returns a copy of the accumulated dwell map.
func (t *Timer) PerNodeDwell() map[string]int64 {
	out := make(map[string]int64, len(t.dwell))
	for id, ms := range t.dwell {
		out[id] = ms
	}

	return out
}

// Drop discards accumulated dwell for a removed node.
func (t *Timer) Drop(nodeID string) {
	delete(t.dwell, nodeID)

	if t.focusedNode == nodeID {
		t.focusedNode = ""
	}
}

// flush adds the elapsed focused interval to the current node and advances
// the transition clock. The clock also advances while idle so a later Focus
// cannot backdate into an idle gap.
func (t *Timer) flush(at time.Time) error {
	if !t.lastAt.IsZero() && at.Before(t.lastAt) {
		return models.ErrInvalidTimestamp
	}

	if t.focusedNode != "" && !t.lastAt.IsZero() {
		t.dwell[t.focusedNode] += at.Sub(t.lastAt).Milliseconds()
	}

	t.lastAt = at

	return nil
}
