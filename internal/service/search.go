package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nodelearn/nodelearn/internal/archive"
	"github.com/nodelearn/nodelearn/internal/domain"
	"github.com/nodelearn/nodelearn/internal/models"
)

// Compile-time check: *Search must satisfy domain.SearchService.
var _ domain.SearchService = (*Search)(nil)

// EntryLister streams archive entries for index hydration.
type EntryLister interface {
	ListEntries(ctx context.Context) ([]models.ArchiveEntry, error)
}

// Search answers archive queries from the in-memory index.
type Search struct {
	index *archive.Index
	store EntryLister
	log   *logrus.Logger
}

// NewSearch creates a Search service over the given index.
func NewSearch(index *archive.Index, store EntryLister, log *logrus.Logger) *Search {
	return &Search{index: index, store: store, log: log}
}

// Search limits.
const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// Search ranks the owner's persisted sessions against the query. Tags are an
// AND filter. An empty query returns no results rather than everything.
func (s *Search) Search(
	_ context.Context, ownerRef, query string, tags []string, limit int,
) ([]models.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.ErrInvalidTopic
	}

	if limit <= 0 {
		limit = defaultSearchLimit
	}

	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	hits := s.index.Search(query, tags)
	results := make([]models.SearchResult, 0, len(hits))

	for _, hit := range hits {
		entry, ok := s.index.Entry(hit.SessionID)
		if !ok || entry.OwnerRef != ownerRef {
			continue
		}

		results = append(results, models.SearchResult{
			SessionID: entry.SessionID,
			SeedTopic: entry.SeedTopic,
			Score:     hit.Score,
			Tags:      entry.Tags,
			StartedAt: entry.StartedAt,
		})

		if len(results) >= limit {
			break
		}
	}

	return results, nil
}

// Hydrate loads all persisted archive entries into the index. Called once at
// startup; safe to call again after a store outage.
func (s *Search) Hydrate(ctx context.Context) error {
	entries, err := s.store.ListEntries(ctx)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		s.index.Add(entry)
	}

	s.log.WithField("entries", len(entries)).Info("archive index hydrated")

	return nil
}
