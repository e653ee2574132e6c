// Package service provides business logic between API handlers and the
// session registry, suggestion providers, and data stores.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nodelearn/nodelearn/internal/archive"
	"github.com/nodelearn/nodelearn/internal/config"
	"github.com/nodelearn/nodelearn/internal/domain"
	"github.com/nodelearn/nodelearn/internal/metrics"
	"github.com/nodelearn/nodelearn/internal/models"
	"github.com/nodelearn/nodelearn/internal/parser"
	"github.com/nodelearn/nodelearn/internal/session"
	"github.com/nodelearn/nodelearn/internal/ws"
)

// Compile-time check: *Explorer must satisfy domain.ExplorerService.
var _ domain.ExplorerService = (*Explorer)(nil)

// SuggestionProvider returns ranked related-topic candidates.
type SuggestionProvider interface {
	Suggest(ctx context.Context, req models.SuggestionRequest) ([]models.Candidate, error)
}

// SessionPersister writes a closed session and returns its archive entry.
type SessionPersister interface {
	Persist(ctx context.Context, session *models.Session) (*models.ArchiveEntry, error)
}

// EventBroadcaster pushes tree-change events to renderer clients.
type EventBroadcaster interface {
	BroadcastEvent(eventType, sessionID string, data json.RawMessage)
}

// Explorer drives live exploration sessions: session lifecycle, expansion
// through a suggestion provider, focus tracking, and pruning.
type Explorer struct {
	registry *session.Registry
	provider SuggestionProvider
	store    SessionPersister
	index    *archive.Index
	hub      EventBroadcaster
	cfg      *config.Config
	log      *logrus.Logger
	now      func() time.Time
}

// NewExplorer creates an Explorer.
func NewExplorer(
	registry *session.Registry, provider SuggestionProvider, store SessionPersister,
	index *archive.Index, hub EventBroadcaster, cfg *config.Config, log *logrus.Logger,
) *Explorer {
	return &Explorer{
		registry: registry,
		provider: provider,
		store:    store,
		index:    index,
		hub:      hub,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// StartSession opens a live session rooted at the seed topic.
func (s *Explorer) StartSession(
	_ context.Context, ownerRef string, req models.StartSessionRequest,
) (*models.SessionInfo, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	live, err := s.registry.Start(ownerRef, req.SeedTopic, req.Tags)
	if err != nil {
		return nil, err
	}

	metrics.ActiveSessions.Set(float64(s.registry.Count()))

	s.log.WithFields(logrus.Fields{
		"session_id": live.ID,
		"owner_ref":  ownerRef,
	}).Info("session started")

	return s.sessionInfo(live), nil
}

// SeedFromDocument extracts seed topics from an uploaded document and opens
// a session rooted at the first one. Remaining seeds attach as children of
// the root so the learner starts with a populated first level.
func (s *Explorer) SeedFromDocument(
	_ context.Context, ownerRef string, document []byte, mimeType string, tags []string,
) (*models.SessionInfo, []string, error) {
	seeds, err := parser.ExtractSeeds(document, mimeType)
	if err != nil {
		return nil, nil, err
	}

	if len(seeds) == 0 {
		return nil, nil, fmt.Errorf("%w: no usable topics in document", models.ErrInvalidTopic)
	}

	live, err := s.registry.Start(ownerRef, seeds[0], tags)
	if err != nil {
		return nil, nil, err
	}

	err = live.WithLock(func() error {
		for _, seed := range seeds[1:] {
			// Duplicate or unusable seeds are skipped, not fatal.
			if _, err := live.Tree.AttachChild(live.Tree.RootID(), seed); err != nil &&
				!errors.Is(err, models.ErrInvalidTopic) && !errors.Is(err, models.ErrCycle) {
				return err
			}
		}

		return nil
	})
	if err != nil {
		s.registry.Remove(live.ID)

		return nil, nil, err
	}

	metrics.ActiveSessions.Set(float64(s.registry.Count()))

	s.log.WithFields(logrus.Fields{
		"session_id": live.ID,
		"owner_ref":  ownerRef,
		"seeds":      len(seeds),
	}).Info("session seeded from document")

	return s.sessionInfo(live), seeds, nil
}

// Snapshot returns the renderer projection of the live tree.
func (s *Explorer) Snapshot(_ context.Context, ownerRef, sessionID string) (*models.TreeSnapshot, error) {
	live, err := s.owned(ownerRef, sessionID)
	if err != nil {
		return nil, err
	}

	var snap models.TreeSnapshot

	err = live.WithLock(func() error {
		snap = live.Tree.Snapshot()

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &snap, nil
}

// Expand asks the suggestion provider for related topics and merges the
// batch into the tree under nodeID. Only one expansion may be outstanding
// per session; the session stays responsive to focus/blur while the provider
// call is in flight because the lock is released for its duration. Provider
// failure leaves the tree untouched.
func (s *Explorer) Expand(
	ctx context.Context, ownerRef, sessionID, nodeID string, depth int,
) (*models.ExpandResult, error) {
	live, err := s.owned(ownerRef, sessionID)
	if err != nil {
		return nil, err
	}

	if err := live.BeginExpand(); err != nil {
		return nil, err
	}
	defer live.EndExpand()

	var req models.SuggestionRequest

	err = live.WithLock(func() error {
		node := live.Tree.Node(nodeID)
		if node == nil {
			return models.ErrNodeNotFound
		}

		path, err := live.Tree.PathTo(nodeID)
		if err != nil {
			return err
		}

		contextPath := make([]string, len(path))
		for i, tp := range path {
			contextPath[i] = tp.Display
		}

		req = models.SuggestionRequest{
			Topic:       node.Topic.Display,
			ContextPath: contextPath,
			MaxResults:  s.cfg.MaxResults,
			Depth:       depth,
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	pctx, cancel := context.WithTimeout(ctx, s.cfg.SuggestionTimeout)
	candidates, err := s.provider.Suggest(pctx, req)
	cancel()

	if err != nil {
		metrics.ProviderFailures.Inc()
		metrics.ExpansionsTotal.WithLabelValues("provider_error").Inc()

		if !errors.Is(err, models.ErrSuggestionProvider) {
			err = fmt.Errorf("%w: %v", models.ErrSuggestionProvider, err)
		}

		return nil, err
	}

	result := &models.ExpandResult{NodeID: nodeID, ExpandedAt: s.now()}

	var outcome mergeOutcome

	err = live.WithLock(func() error {
		outcome, err = mergeCandidates(
			live.Tree, nodeID, candidates,
			s.cfg.MaxResults, s.cfg.DuplicatePolicy, s.cfg.ResuggestPolicy,
		)

		return err
	})
	if err != nil {
		metrics.ExpansionsTotal.WithLabelValues("error").Inc()

		return nil, err
	}

	result.Accepted = outcome.accepted
	result.CrossLinks = outcome.crossLinks

	for i, tp := range outcome.accepted {
		s.broadcast(ws.EventNodeAdded, sessionID, map[string]any{
			"node_id":   outcome.acceptedID[i],
			"parent_id": nodeID,
			"topic":     tp,
		})
	}

	for _, target := range outcome.crossLinks {
		s.broadcast(ws.EventCrossLinked, sessionID, map[string]any{
			"node_id": nodeID,
			"target":  target,
		})
	}

	metrics.ExpansionsTotal.WithLabelValues("ok").Inc()
	metrics.SuggestionsAccepted.Add(float64(len(outcome.accepted)))

	s.log.WithFields(logrus.Fields{
		"session_id":  sessionID,
		"node_id":     nodeID,
		"accepted":    len(outcome.accepted),
		"cross_links": len(outcome.crossLinks),
	}).Debug("node expanded")

	return result, nil
}

// Focus moves the dwell timer to nodeID at the given instant.
func (s *Explorer) Focus(_ context.Context, ownerRef, sessionID, nodeID string, atMs int64) error {
	live, err := s.owned(ownerRef, sessionID)
	if err != nil {
		return err
	}

	err = live.WithLock(func() error {
		if live.Tree.Node(nodeID) == nil {
			return models.ErrNodeNotFound
		}

		prev := live.Timer.FocusedNode()
		if err := live.Timer.Focus(nodeID, s.at(atMs)); err != nil {
			return err
		}

		// The transition closed the previous node's interval; mirror its new
		// total into the tree so live snapshots report it.
		if prev != "" {
			live.Tree.SetDwell(prev, live.Timer.DwellMs(prev))
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.broadcast(ws.EventFocusChanged, sessionID, map[string]any{"node_id": nodeID})

	return nil
}

// Blur moves the dwell timer to Idle at the given instant.
func (s *Explorer) Blur(_ context.Context, ownerRef, sessionID string, atMs int64) error {
	live, err := s.owned(ownerRef, sessionID)
	if err != nil {
		return err
	}

	err = live.WithLock(func() error {
		prev := live.Timer.FocusedNode()
		if err := live.Timer.Blur(s.at(atMs)); err != nil {
			return err
		}

		if prev != "" {
			live.Tree.SetDwell(prev, live.Timer.DwellMs(prev))
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.broadcast(ws.EventFocusChanged, sessionID, map[string]any{"node_id": ""})

	return nil
}

// RemoveNode prunes the subtree rooted at nodeID. Dwell accumulated on
// removed nodes is discarded with them.
func (s *Explorer) RemoveNode(_ context.Context, ownerRef, sessionID, nodeID string) ([]string, error) {
	live, err := s.owned(ownerRef, sessionID)
	if err != nil {
		return nil, err
	}

	var removed []string

	err = live.WithLock(func() error {
		removed, err = live.Tree.RemoveSubtree(nodeID)
		if err != nil {
			return err
		}

		for _, id := range removed {
			live.Timer.Drop(id)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(ws.EventNodeRemoved, sessionID, map[string]any{
		"node_id": nodeID,
		"removed": removed,
	})

	return removed, nil
}

// EndSession closes the session, persists it, and feeds the archive index.
// Ending twice is idempotent. When the store is unavailable the session
// stays registered in its ended state so a retried end call can persist the
// same record.
func (s *Explorer) EndSession(
	ctx context.Context, ownerRef, sessionID string, atMs int64,
) (*models.SessionMeta, error) {
	live, err := s.owned(ownerRef, sessionID)
	if err != nil {
		return nil, err
	}

	record, err := live.Close(s.at(atMs))
	if err != nil {
		return nil, err
	}

	entry, err := s.store.Persist(ctx, record)
	if err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Warn("persist failed, session retained for retry")

		return nil, err
	}

	s.index.Add(*entry)
	s.registry.Remove(sessionID)
	metrics.ActiveSessions.Set(float64(s.registry.Count()))

	s.broadcast(ws.EventSessionEnded, sessionID, nil)

	s.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"topics":     record.TopicCount(),
		"dwell_ms":   record.TotalDwellMs(),
	}).Info("session ended")

	return &models.SessionMeta{
		ID:           record.ID,
		OwnerRef:     record.OwnerRef,
		SeedTopic:    entry.SeedTopic,
		StartedAt:    record.StartedAt,
		EndedAt:      *record.EndedAt,
		TopicCount:   record.TopicCount(),
		TotalDwellMs: record.TotalDwellMs(),
		Tags:         record.Tags,
	}, nil
}

// LiveCount returns the number of live sessions, for the stats endpoint.
func (s *Explorer) LiveCount() int { return s.registry.Count() }

// owned fetches a live session and verifies ownership. A session belonging
// to another owner reads as not found rather than forbidden.
func (s *Explorer) owned(ownerRef, sessionID string) (*session.Live, error) {
	live, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	if live.OwnerRef != ownerRef {
		return nil, models.ErrSessionNotFound
	}

	return live, nil
}

// at converts a caller-supplied millisecond timestamp, zero meaning now.
func (s *Explorer) at(atMs int64) time.Time {
	if atMs == 0 {
		return s.now()
	}

	return time.UnixMilli(atMs)
}

func (s *Explorer) sessionInfo(live *session.Live) *models.SessionInfo {
	root := live.Tree.Node(live.Tree.RootID())

	return &models.SessionInfo{
		ID:        live.ID,
		RootID:    live.Tree.RootID(),
		SeedTopic: root.Topic,
		StartedAt: live.StartedAt,
		Tags:      live.Tags,
	}
}

func (s *Explorer) broadcast(eventType, sessionID string, data map[string]any) {
	if s.hub == nil {
		return
	}

	var raw json.RawMessage

	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			s.log.WithError(err).Error("failed to marshal event payload")

			return
		}

		raw = b
	}

	s.hub.BroadcastEvent(eventType, sessionID, raw)
}
