package client

import (
	"context"
	"net/url"
	"strconv"
)

// HistoryService handles persisted-session queries.
type HistoryService struct {
	c *Client
}

// HistoryListOptions filters and paginates the history listing.
type HistoryListOptions struct {
	Sort   string // newest | oldest | most_topics | longest_dwell
	Limit  int
	Offset int
}

// historyListResponse wraps the history list response.
type historyListResponse struct {
	Sessions []SessionMeta `json:"sessions"`
}

// List returns the caller's persisted sessions.
func (s *HistoryService) List(ctx context.Context, opts *HistoryListOptions) ([]SessionMeta, error) {
	params := url.Values{}
	if opts != nil {
		if opts.Sort != "" {
			params.Set("sort", opts.Sort)
		}
		if opts.Limit > 0 {
			params.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.Offset > 0 {
			params.Set("offset", strconv.Itoa(opts.Offset))
		}
	}
	var resp historyListResponse
	if err := s.c.get(ctx, "/api/v1/history", params, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// Get returns one persisted session with its full tree snapshot.
func (s *HistoryService) Get(ctx context.Context, sessionID string) (*Session, error) {
	var session Session
	if err := s.c.get(ctx, "/api/v1/history/"+url.PathEscape(sessionID), nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}
