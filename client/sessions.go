package client

import (
	"context"
	"net/url"
)

// SessionService handles live-session operations.
type SessionService struct {
	c *Client
}

// Start opens a new session rooted at the seed topic.
func (s *SessionService) Start(ctx context.Context, req *StartSessionRequest) (*SessionInfo, error) {
	var info SessionInfo
	if err := s.c.post(ctx, "/api/v1/sessions", req, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Seed opens a session from a text or markdown document.
func (s *SessionService) Seed(ctx context.Context, req *SeedSessionRequest) (*SeedSessionResponse, error) {
	var resp SeedSessionResponse
	if err := s.c.post(ctx, "/api/v1/sessions/seed", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Snapshot returns the current tree projection for a live session.
func (s *SessionService) Snapshot(ctx context.Context, sessionID string) (*TreeSnapshot, error) {
	var snap TreeSnapshot
	if err := s.c.get(ctx, "/api/v1/sessions/"+url.PathEscape(sessionID)+"/snapshot", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Expand requests AI suggestions for a node and merges them into the tree.
func (s *SessionService) Expand(ctx context.Context, sessionID, nodeID string, depth int) (*ExpandResult, error) {
	body := map[string]any{"node_id": nodeID}
	if depth > 0 {
		body["depth"] = depth
	}
	var result ExpandResult
	if err := s.c.post(ctx, "/api/v1/sessions/"+url.PathEscape(sessionID)+"/expand", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Focus moves dwell tracking to the given node. atMs zero uses the server clock.
func (s *SessionService) Focus(ctx context.Context, sessionID, nodeID string, atMs int64) error {
	body := map[string]any{"node_id": nodeID}
	if atMs > 0 {
		body["at_ms"] = atMs
	}
	return s.c.post(ctx, "/api/v1/sessions/"+url.PathEscape(sessionID)+"/focus", body, nil)
}

// Blur moves dwell tracking to idle. atMs zero uses the server clock.
func (s *SessionService) Blur(ctx context.Context, sessionID string, atMs int64) error {
	body := map[string]any{}
	if atMs > 0 {
		body["at_ms"] = atMs
	}
	return s.c.post(ctx, "/api/v1/sessions/"+url.PathEscape(sessionID)+"/blur", body, nil)
}

// RemoveNode prunes the subtree rooted at nodeID and returns the removed ids.
func (s *SessionService) RemoveNode(ctx context.Context, sessionID, nodeID string) ([]string, error) {
	var resp struct {
		Removed []string `json:"removed"`
	}
	path := "/api/v1/sessions/" + url.PathEscape(sessionID) + "/nodes/" + url.PathEscape(nodeID)
	if err := s.c.del(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Removed, nil
}

// End closes and persists the session. Ending twice is safe.
func (s *SessionService) End(ctx context.Context, sessionID string, atMs int64) (*SessionMeta, error) {
	body := map[string]any{}
	if atMs > 0 {
		body["at_ms"] = atMs
	}
	var meta SessionMeta
	if err := s.c.post(ctx, "/api/v1/sessions/"+url.PathEscape(sessionID)+"/end", body, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}
