package api_test

import (
	"context"

	"github.com/nodelearn/nodelearn/internal/models"
)

// mockExplorer implements api.ExplorerService for testing.
type mockExplorer struct {
	startFn    func(ctx context.Context, ownerRef string, req models.StartSessionRequest) (*models.SessionInfo, error)
	seedFn     func(ctx context.Context, ownerRef string, document []byte, mimeType string, tags []string) (*models.SessionInfo, []string, error)
	snapshotFn func(ctx context.Context, ownerRef, sessionID string) (*models.TreeSnapshot, error)
	expandFn   func(ctx context.Context, ownerRef, sessionID, nodeID string, depth int) (*models.ExpandResult, error)
	focusFn    func(ctx context.Context, ownerRef, sessionID, nodeID string, atMs int64) error
	blurFn     func(ctx context.Context, ownerRef, sessionID string, atMs int64) error
	removeFn   func(ctx context.Context, ownerRef, sessionID, nodeID string) ([]string, error)
	endFn      func(ctx context.Context, ownerRef, sessionID string, atMs int64) (*models.SessionMeta, error)
}

func (m *mockExplorer) StartSession(ctx context.Context, ownerRef string, req models.StartSessionRequest) (*models.SessionInfo, error) {
	return m.startFn(ctx, ownerRef, req)
}

func (m *mockExplorer) SeedFromDocument(ctx context.Context, ownerRef string, document []byte, mimeType string, tags []string) (*models.SessionInfo, []string, error) {
	return m.seedFn(ctx, ownerRef, document, mimeType, tags)
}

func (m *mockExplorer) Snapshot(ctx context.Context, ownerRef, sessionID string) (*models.TreeSnapshot, error) {
	return m.snapshotFn(ctx, ownerRef, sessionID)
}

func (m *mockExplorer) Expand(ctx context.Context, ownerRef, sessionID, nodeID string, depth int) (*models.ExpandResult, error) {
	return m.expandFn(ctx, ownerRef, sessionID, nodeID, depth)
}

func (m *mockExplorer) Focus(ctx context.Context, ownerRef, sessionID, nodeID string, atMs int64) error {
	return m.focusFn(ctx, ownerRef, sessionID, nodeID, atMs)
}

func (m *mockExplorer) Blur(ctx context.Context, ownerRef, sessionID string, atMs int64) error {
	return m.blurFn(ctx, ownerRef, sessionID, atMs)
}

func (m *mockExplorer) RemoveNode(ctx context.Context, ownerRef, sessionID, nodeID string) ([]string, error) {
	return m.removeFn(ctx, ownerRef, sessionID, nodeID)
}

func (m *mockExplorer) EndSession(ctx context.Context, ownerRef, sessionID string, atMs int64) (*models.SessionMeta, error) {
	return m.endFn(ctx, ownerRef, sessionID, atMs)
}

// mockHistory implements api.HistoryService for testing.
type mockHistory struct {
	listFn func(ctx context.Context, ownerRef, sort string, limit, offset int) ([]models.SessionMeta, error)
	getFn  func(ctx context.Context, ownerRef, sessionID string) (*models.Session, error)
}

func (m *mockHistory) List(ctx context.Context, ownerRef, sort string, limit, offset int) ([]models.SessionMeta, error) {
	return m.listFn(ctx, ownerRef, sort, limit, offset)
}

func (m *mockHistory) Get(ctx context.Context, ownerRef, sessionID string) (*models.Session, error) {
	return m.getFn(ctx, ownerRef, sessionID)
}

// mockSearch implements api.SearchService for testing.
type mockSearch struct {
	searchFn func(ctx context.Context, ownerRef, query string, tags []string, limit int) ([]models.SearchResult, error)
}

func (m *mockSearch) Search(ctx context.Context, ownerRef, query string, tags []string, limit int) ([]models.SearchResult, error) {
	return m.searchFn(ctx, ownerRef, query, tags, limit)
}
