package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/nodelearn/nodelearn/internal/domain"
	"github.com/nodelearn/nodelearn/internal/models"
	"github.com/nodelearn/nodelearn/internal/store"
)

// Compile-time check: *History must satisfy domain.HistoryService.
var _ domain.HistoryService = (*History)(nil)

// HistoryStore is the data-access interface History depends on.
type HistoryStore interface {
	Get(ctx context.Context, sessionID string) (*models.Session, error)
	ListByOwner(ctx context.Context, ownerRef, sort string, limit, offset int) ([]models.SessionMeta, error)
}

// History reads persisted sessions for the history views.
type History struct {
	store HistoryStore
	log   *logrus.Logger
}

// NewHistory creates a History service.
func NewHistory(s HistoryStore, log *logrus.Logger) *History {
	return &History{store: s, log: log}
}

// Listing limits.
const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// List returns the owner's persisted sessions in the requested order.
// Unknown sort names fall back to newest-first.
func (h *History) List(
	ctx context.Context, ownerRef, sort string, limit, offset int,
) ([]models.SessionMeta, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	if offset < 0 {
		offset = 0
	}

	if sort == "" {
		sort = store.SortNewest
	}

	return h.store.ListByOwner(ctx, ownerRef, sort, limit, offset)
}

// Get returns one persisted session with its full tree snapshot. Sessions
// belonging to another owner read as not found.
func (h *History) Get(ctx context.Context, ownerRef, sessionID string) (*models.Session, error) {
	s, err := h.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if s.OwnerRef != ownerRef {
		return nil, models.ErrSessionNotFound
	}

	return s, nil
}
