// Package domain defines the canonical service interfaces shared across API
// layers (REST, WebSocket, client). Consumers should depend on these
// interfaces rather than re-declaring equivalent ones.
package domain

import (
	"context"

	"github.com/nodelearn/nodelearn/internal/models"
)

// ExplorerService defines all live-session operations: opening sessions,
// expanding nodes with AI suggestions, focus tracking, pruning, and ending.
type ExplorerService interface {
	StartSession(ctx context.Context, ownerRef string, req models.StartSessionRequest) (*models.SessionInfo, error)
	SeedFromDocument(ctx context.Context, ownerRef string, document []byte, mimeType string, tags []string) (*models.SessionInfo, []string, error)
	Snapshot(ctx context.Context, ownerRef, sessionID string) (*models.TreeSnapshot, error)
	Expand(ctx context.Context, ownerRef, sessionID, nodeID string, depth int) (*models.ExpandResult, error)
	Focus(ctx context.Context, ownerRef, sessionID, nodeID string, atMs int64) error
	Blur(ctx context.Context, ownerRef, sessionID string, atMs int64) error
	RemoveNode(ctx context.Context, ownerRef, sessionID, nodeID string) ([]string, error)
	EndSession(ctx context.Context, ownerRef, sessionID string, atMs int64) (*models.SessionMeta, error)
}

// HistoryService defines read access to persisted sessions.
type HistoryService interface {
	List(ctx context.Context, ownerRef, sort string, limit, offset int) ([]models.SessionMeta, error)
	Get(ctx context.Context, ownerRef, sessionID string) (*models.Session, error)
}

// SearchService defines archive search over persisted sessions.
type SearchService interface {
	Search(ctx context.Context, ownerRef, query string, tags []string, limit int) ([]models.SearchResult, error)
}
