package client

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// SearchService handles archive search.
type SearchService struct {
	c *Client
}

// SearchOptions filters the archive search.
type SearchOptions struct {
	Tags  []string // AND filter
	Limit int
}

// searchResponse wraps the search result list.
type searchResponse struct {
	Results []SearchResult `json:"results"`
}

// Search ranks the caller's persisted sessions against the query.
func (s *SearchService) Search(ctx context.Context, query string, opts *SearchOptions) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	if opts != nil {
		if len(opts.Tags) > 0 {
			params.Set("tags", strings.Join(opts.Tags, ","))
		}
		if opts.Limit > 0 {
			params.Set("limit", strconv.Itoa(opts.Limit))
		}
	}
	var resp searchResponse
	if err := s.c.get(ctx, "/api/v1/archive/search", params, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}
