// Package tree implements the in-memory knowledge tree: an arena of nodes
// keyed by id, a global topic index for deduplication, and non-owning
// cross-links for concepts that were re-suggested elsewhere in the tree.
//
// A Tree is not safe for concurrent use; the session registry serializes
// access per session.
package tree

import (
	"time"

	"github.com/google/uuid"

	"github.com/nodelearn/nodelearn/internal/models"
	"github.com/nodelearn/nodelearn/internal/topic"
)

// Node is one explored concept. Ownership flows root→children through
// ChildIDs; ParentID is a non-owning back-reference used for path
// reconstruction and ancestor cycle checks only.
type Node struct {
	ID              string
	Topic           models.Topic
	ParentID        string
	ChildIDs        []string
	CrossLinks      []string
	CreatedAt       time.Time
	SuggestionsSeen map[string]struct{}
	DwellMs         int64
}

// Tree owns the node arena. topicIndex maps a normal form to the single
// owning node id: the invariant is that no two nodes anywhere in the tree
// share a normalized topic.
type Tree struct {
	rootID     string
	nodes      map[string]*Node
	topicIndex map[string]string
	now        func() time.Time
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{
		nodes:      make(map[string]*Node),
		topicIndex: make(map[string]string),
		now:        time.Now,
	}
}

// RootID returns the root node id, or "" before CreateRoot.
func (t *Tree) RootID() string { return t.rootID }

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node with the given id, or nil.
func (t *Tree) Node(id string) *Node { return t.nodes[id] }

// OwnerOf returns the id of the node owning the given normalized topic,
// or "" when the concept is not in the tree.
func (t *Tree) OwnerOf(norm string) string { return t.topicIndex[norm] }

// CreateRoot seeds the tree. Fails with models.ErrTreeInitialized when a
// root already exists.
func (t *Tree) CreateRoot(raw string) (string, error) {
	if t.rootID != "" {
		return "", models.ErrTreeInitialized
	}

	tp, err := topic.Normalize(raw)
	if err != nil {
		return "", err
	}

	n := t.newNode(tp, "")
	t.rootID = n.ID

	return n.ID, nil
}

// AttachResult reports what AttachChild did: a freshly created node
// (Created true) or a cross-link to the existing owner of the topic.
type AttachResult struct {
	NodeID  string
	Created bool
}

// AttachChild attaches rawTopic under parentID. The first occurrence of a
// concept owns its node; attaching an already-present concept records a
// cross-link on the parent instead of duplicating, unless the concept is an
// ancestor of the parent, which would close a cycle and fails with
// models.ErrCycle. No state is mutated on any error path.
func (t *Tree) AttachChild(parentID, rawTopic string) (AttachResult, error) {
	parent, ok := t.nodes[parentID]
	if !ok {
		return AttachResult{}, models.ErrParentNotFound
	}

	tp, err := topic.Normalize(rawTopic)
	if err != nil {
		return AttachResult{}, err
	}

	if t.isAncestorTopic(parentID, tp.Norm) {
		return AttachResult{}, models.ErrCycle
	}

	if ownerID, exists := t.topicIndex[tp.Norm]; exists {
		parent.addCrossLink(ownerID)

		return AttachResult{NodeID: ownerID, Created: false}, nil
	}

	n := t.newNode(tp, parentID)
	parent.ChildIDs = append(parent.ChildIDs, n.ID)

	return AttachResult{NodeID: n.ID, Created: true}, nil
}

// RemoveSubtree deletes the node and all owned descendants, dropping their
// topic index entries and any cross-links pointing into the removed set.
// Returns the removed ids so callers can discard per-node state of their
// own. Fails with models.ErrRootRemoval for the root and
// models.ErrNodeNotFound for unknown ids.
func (t *Tree) RemoveSubtree(nodeID string) ([]string, error) {
	n, ok := t.nodes[nodeID]
	if !ok {
		return nil, models.ErrNodeNotFound
	}

	if nodeID == t.rootID {
		return nil, models.ErrRootRemoval
	}

	removed := make(map[string]struct{})
	t.collect(n, removed)

	if parent, ok := t.nodes[n.ParentID]; ok {
		parent.ChildIDs = without(parent.ChildIDs, nodeID)
	}

	removedIDs := make([]string, 0, len(removed))

	for id := range removed {
		removedIDs = append(removedIDs, id)
		delete(t.topicIndex, t.nodes[id].Topic.Norm)
		delete(t.nodes, id)
	}

	for _, survivor := range t.nodes {
		survivor.CrossLinks = withoutSet(survivor.CrossLinks, removed)
	}

	return removedIDs, nil
}

// PathTo reconstructs the topic path from the root to nodeID via parent
// back-references. Fails with models.ErrNodeNotFound.
func (t *Tree) PathTo(nodeID string) ([]models.Topic, error) {
	n, ok := t.nodes[nodeID]
	if !ok {
		return nil, models.ErrNodeNotFound
	}

	var reversed []models.Topic
	for n != nil {
		reversed = append(reversed, n.Topic)
		n = t.nodes[n.ParentID]
	}

	path := make([]models.Topic, len(reversed))
	for i, tp := range reversed {
		path[len(path)-1-i] = tp
	}

	return path, nil
}

// Reset discards the whole tree and seeds it again with rawTopic.
// The old state survives when normalization fails.
func (t *Tree) Reset(rawTopic string) (string, error) {
	tp, err := topic.Normalize(rawTopic)
	if err != nil {
		return "", err
	}

	t.rootID = ""
	t.nodes = make(map[string]*Node)
	t.topicIndex = make(map[string]string)

	n := t.newNode(tp, "")
	t.rootID = n.ID

	return n.ID, nil
}

// MarkSeen records candidates offered for nodeID so repeated expansions
// never re-offer them.
func (t *Tree) MarkSeen(nodeID string, norms []string) {
	n, ok := t.nodes[nodeID]
	if !ok {
		return
	}

	for _, norm := range norms {
		n.SuggestionsSeen[norm] = struct{}{}
	}
}

// Seen reports whether the candidate normal form was already offered on nodeID.
func (t *Tree) Seen(nodeID, norm string) bool {
	n, ok := t.nodes[nodeID]
	if !ok {
		return false
	}

	_, seen := n.SuggestionsSeen[norm]

	return seen
}

// SetDwell records the accumulated dwell total for a node. The dwell timer
// owns the arithmetic; the tree only mirrors totals so snapshots carry them.
// Unknown ids are ignored: the node may have been removed while focused.
func (t *Tree) SetDwell(nodeID string, ms int64) {
	if n, ok := t.nodes[nodeID]; ok {
		n.DwellMs = ms
	}
}

// Snapshot produces the read-only renderer projection. Child order is
// preserved; node order follows a root-first walk so renderers can draw
// incrementally.
func (t *Tree) Snapshot() models.TreeSnapshot {
	snap := models.TreeSnapshot{RootID: t.rootID}
	if t.rootID == "" {
		return snap
	}

	queue := []string{t.rootID}
	for len(queue) > 0 {
		n := t.nodes[queue[0]]
		queue = queue[1:]

		snap.Nodes = append(snap.Nodes, models.SnapshotNode{
			ID:         n.ID,
			Topic:      n.Topic,
			ParentID:   n.ParentID,
			ChildIDs:   append([]string(nil), n.ChildIDs...),
			CrossLinks: append([]string(nil), n.CrossLinks...),
			DwellMs:    n.DwellMs,
		})
		queue = append(queue, n.ChildIDs...)
	}

	return snap
}

func (t *Tree) newNode(tp models.Topic, parentID string) *Node {
	n := &Node{
		ID:              uuid.New().String(),
		Topic:           tp,
		ParentID:        parentID,
		CreatedAt:       t.now(),
		SuggestionsSeen: make(map[string]struct{}),
	}
	t.nodes[n.ID] = n
	t.topicIndex[tp.Norm] = n.ID

	return n
}

// isAncestorTopic walks parent back-references from nodeID to the root,
// comparing normal forms. Bounded by tree depth.
func (t *Tree) isAncestorTopic(nodeID, norm string) bool {
	for n := t.nodes[nodeID]; n != nil; n = t.nodes[n.ParentID] {
		if n.Topic.Norm == norm {
			return true
		}
	}

	return false
}

func (t *Tree) collect(n *Node, into map[string]struct{}) {
	into[n.ID] = struct{}{}
	for _, childID := range n.ChildIDs {
		if child, ok := t.nodes[childID]; ok {
			t.collect(child, into)
		}
	}
}

func (n *Node) addCrossLink(targetID string) {
	for _, id := range n.CrossLinks {
		if id == targetID {
			return
		}
	}

	n.CrossLinks = append(n.CrossLinks, targetID)
}

func without(ids []string, drop string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}

	return out
}

func withoutSet(ids []string, drop map[string]struct{}) []string {
	if len(ids) == 0 {
		return ids
	}

	out := ids[:0]
	for _, id := range ids {
		if _, gone := drop[id]; !gone {
			out = append(out, id)
		}
	}

	return out
}
