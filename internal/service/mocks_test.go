package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/nodelearn/nodelearn/internal/archive"
	"github.com/nodelearn/nodelearn/internal/models"
)

// mockProvider returns configured candidate batches.
type mockProvider struct {
	mu       sync.Mutex
	requests []models.SuggestionRequest

	suggestFn func(ctx context.Context, req models.SuggestionRequest) ([]models.Candidate, error)
}

func (m *mockProvider) Suggest(ctx context.Context, req models.SuggestionRequest) ([]models.Candidate, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	return m.suggestFn(ctx, req)
}

// mockPersister records persisted sessions and returns configured responses.
type mockPersister struct {
	mu        sync.Mutex
	persisted []*models.Session

	persistFn func(ctx context.Context, s *models.Session) (*models.ArchiveEntry, error)
}

func (m *mockPersister) Persist(ctx context.Context, s *models.Session) (*models.ArchiveEntry, error) {
	m.mu.Lock()
	m.persisted = append(m.persisted, s)
	m.mu.Unlock()

	if m.persistFn != nil {
		return m.persistFn(ctx, s)
	}

	entry := archive.EntryFromSession(s)

	return &entry, nil
}

func (m *mockPersister) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.persisted)
}

// mockHub records broadcast events.
type mockHub struct {
	mu     sync.Mutex
	events []string
}

func (m *mockHub) BroadcastEvent(eventType, _ string, _ json.RawMessage) {
	m.mu.Lock()
	m.events = append(m.events, eventType)
	m.mu.Unlock()
}

func (m *mockHub) byType(eventType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, e := range m.events {
		if e == eventType {
			n++
		}
	}

	return n
}

// mockHistoryStore implements HistoryStore.
type mockHistoryStore struct {
	getFn  func(ctx context.Context, sessionID string) (*models.Session, error)
	listFn func(ctx context.Context, ownerRef, sort string, limit, offset int) ([]models.SessionMeta, error)
}

func (m *mockHistoryStore) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	return m.getFn(ctx, sessionID)
}

func (m *mockHistoryStore) ListByOwner(ctx context.Context, ownerRef, sort string, limit, offset int) ([]models.SessionMeta, error) {
	return m.listFn(ctx, ownerRef, sort, limit, offset)
}

// mockEntryLister implements EntryLister.
type mockEntryLister struct {
	entries []models.ArchiveEntry
	err     error
}

func (m *mockEntryLister) ListEntries(context.Context) ([]models.ArchiveEntry, error) {
	return m.entries, m.err
}
