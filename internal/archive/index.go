// Package archive provides the in-memory search index over persisted
// sessions. The index is a projection: it is hydrated from the store at
// startup and updated whenever a session is persisted, never the other way
// around.
package archive

import (
	"sort"
	"strings"
	"sync"

	"github.com/nodelearn/nodelearn/internal/models"
	"github.com/nodelearn/nodelearn/internal/topic"
)

// Index is an inverted index from normalized tokens to archive entries.
// Safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	entries map[string]models.ArchiveEntry // sessionID -> entry
	byTerm  map[string]map[string]struct{} // token -> set of sessionIDs
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		entries: make(map[string]models.ArchiveEntry),
		byTerm:  make(map[string]map[string]struct{}),
	}
}

// Add indexes an entry. Re-indexing a sessionID replaces its prior entry, so
// Add is idempotent.
func (ix *Index) Add(entry models.ArchiveEntry) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if old, ok := ix.entries[entry.SessionID]; ok {
		ix.removeTerms(old)
	}

	ix.entries[entry.SessionID] = entry
	for _, term := range entry.IndexedTerms {
		set, ok := ix.byTerm[term]
		if !ok {
			set = make(map[string]struct{})
			ix.byTerm[term] = set
		}

		set[entry.SessionID] = struct{}{}
	}
}

// Entry returns the indexed entry for a session id.
func (ix *Index) Entry(sessionID string) (models.ArchiveEntry, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	entry, ok := ix.entries[sessionID]

	return entry, ok
}

// Len returns the number of indexed sessions.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	return len(ix.entries)
}

// Search ranks sessions by token overlap between the normalized query and
// each entry's indexed terms. The tag filter is an AND intersection applied
// before scoring; ties break by session start time, most recent first.
func (ix *Index) Search(query string, tags []string) []models.SearchHit {
	terms := Tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	scores := make(map[string]float64)
	for _, term := range terms {
		for sessionID := range ix.byTerm[term] {
			scores[sessionID]++
		}
	}

	hits := make([]models.SearchHit, 0, len(scores))

	for sessionID, score := range scores {
		entry := ix.entries[sessionID]
		if !hasAllTags(entry.Tags, tags) {
			continue
		}

		hits = append(hits, models.SearchHit{SessionID: sessionID, Score: score})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}

		return ix.entries[hits[i].SessionID].StartedAt.After(ix.entries[hits[j].SessionID].StartedAt)
	})

	return hits
}

// Tokenize splits text into normalized index tokens, deduplicated.
func Tokenize(text string) []string {
	tp, err := topic.Normalize(text)
	if err != nil {
		return nil
	}

	fields := strings.Fields(tp.Norm)
	seen := make(map[string]struct{}, len(fields))
	out := fields[:0]

	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}

		seen[f] = struct{}{}
		out = append(out, f)
	}

	return out
}

// EntryFromSession builds the read-optimized projection for one closed
// session: every explored topic contributes tokens, as does the seed.
func EntryFromSession(s *models.Session) models.ArchiveEntry {
	var parts []string
	for _, n := range s.Tree.Nodes {
		parts = append(parts, n.Topic.Display)
	}

	seed := ""
	for _, n := range s.Tree.Nodes {
		if n.ID == s.Tree.RootID {
			seed = n.Topic.Display

			break
		}
	}

	return models.ArchiveEntry{
		SessionID:    s.ID,
		OwnerRef:     s.OwnerRef,
		SeedTopic:    seed,
		IndexedTerms: Tokenize(strings.Join(parts, " ")),
		Tags:         append([]string(nil), s.Tags...),
		StartedAt:    s.StartedAt,
	}
}

func (ix *Index) removeTerms(entry models.ArchiveEntry) {
	for _, term := range entry.IndexedTerms {
		if set, ok := ix.byTerm[term]; ok {
			delete(set, entry.SessionID)
			if len(set) == 0 {
				delete(ix.byTerm, term)
			}
		}
	}
}

func hasAllTags(entryTags, want []string) bool {
	if len(want) == 0 {
		return true
	}

	have := make(map[string]struct{}, len(entryTags))
	for _, t := range entryTags {
		have[strings.ToLower(t)] = struct{}{}
	}

	for _, t := range want {
		if _, ok := have[strings.ToLower(t)]; !ok {
			return false
		}
	}

	return true
}
