package api

import "github.com/nodelearn/nodelearn/internal/domain"

// Handler dependencies alias the canonical domain interfaces so handler
// constructors read as accepting services, not concrete types.
type (
	// ExplorerService drives live-session endpoints.
	ExplorerService = domain.ExplorerService

	// HistoryService serves the persisted-session history endpoints.
	HistoryService = domain.HistoryService

	// SearchService serves the archive search endpoint.
	SearchService = domain.SearchService
)
