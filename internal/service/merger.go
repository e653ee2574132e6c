package service

import (
	"errors"

	"github.com/nodelearn/nodelearn/internal/config"
	"github.com/nodelearn/nodelearn/internal/models"
	"github.com/nodelearn/nodelearn/internal/topic"
	"github.com/nodelearn/nodelearn/internal/tree"
)

// mergeOutcome is what one candidate batch did to the tree.
type mergeOutcome struct {
	accepted   []models.Topic
	acceptedID []string
	crossLinks []string
	offered    []string
}

// mergeCandidates folds a provider candidate batch into the tree under
// nodeID, in provider rank order. Per candidate exactly one of: a new child
// node, a cross-link to the existing owner (policy "cross-link"), or a
// silent skip (invalid topic, batch duplicate, already offered, ancestor
// cycle, or policy "skip"). At most maxAccept new nodes are created; the
// caller holds the session lock.
func mergeCandidates(
	t *tree.Tree, nodeID string, candidates []models.Candidate,
	maxAccept int, duplicatePolicy, resuggestPolicy string,
) (mergeOutcome, error) {
	var out mergeOutcome

	batchSeen := make(map[string]struct{}, len(candidates))

	for _, cand := range candidates {
		if len(out.accepted) >= maxAccept {
			break
		}

		tp, err := topic.Normalize(cand.Topic)
		if err != nil {
			continue
		}

		if _, dup := batchSeen[tp.Norm]; dup {
			continue
		}

		batchSeen[tp.Norm] = struct{}{}

		if resuggestPolicy == config.ResuggestNever && t.Seen(nodeID, tp.Norm) {
			continue
		}

		out.offered = append(out.offered, tp.Norm)

		if ownerID := t.OwnerOf(tp.Norm); ownerID != "" && duplicatePolicy == config.DuplicateSkip {
			continue
		}

		res, err := t.AttachChild(nodeID, cand.Topic)

		switch {
		case err == nil && res.Created:
			out.accepted = append(out.accepted, tp)
			out.acceptedID = append(out.acceptedID, res.NodeID)
		case err == nil:
			out.crossLinks = append(out.crossLinks, res.NodeID)
		case errors.Is(err, models.ErrCycle):
			// The concept is an ancestor of the expanded node. Linking it
			// would close a cycle, so the candidate is dropped.
			continue
		default:
			return mergeOutcome{}, err
		}
	}

	t.MarkSeen(nodeID, out.offered)

	return out, nil
}
