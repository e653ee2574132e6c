package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/nodelearn/nodelearn/internal/archive"
	"github.com/nodelearn/nodelearn/internal/models"
)

// SessionStore persists closed sessions and their archive projections.
type SessionStore struct {
	Base
}

// NewSessionStore creates a SessionStore.
func NewSessionStore(base Base) *SessionStore {
	return &SessionStore{Base: base}
}

// Valid ListByOwner sort orders, mirroring the history views.
const (
	SortNewest       = "newest"
	SortOldest       = "oldest"
	SortMostTopics   = "most_topics"
	SortLongestDwell = "longest_dwell"
)

// orderClauses maps a sort name to its ORDER BY clause. Values are fixed
// strings, never user input.
var orderClauses = map[string]string{
	SortNewest:       "ended_at DESC",
	SortOldest:       "ended_at ASC",
	SortMostTopics:   "topic_count DESC, ended_at DESC",
	SortLongestDwell: "total_dwell_ms DESC, ended_at DESC",
}

// Persist writes a closed session and its archive entry in one transaction.
// It is idempotent per session id: persisting an already-stored session is a
// no-op that returns the existing entry, so retries after transient store
// failures are safe.
func (s *SessionStore) Persist(ctx context.Context, session *models.Session) (*models.ArchiveEntry, error) {
	if session.EndedAt == nil {
		return nil, fmt.Errorf("session %s is still open", session.ID)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if existing, err := s.GetEntry(ctx, session.ID); err == nil {
		s.Log.WithField("session_id", session.ID).Debug("session already persisted")

		return existing, nil
	} else if !errors.Is(err, models.ErrSessionNotFound) {
		return nil, err
	}

	entry := archive.EntryFromSession(session)

	treeJSON, err := json.Marshal(session.Tree)
	if err != nil {
		return nil, fmt.Errorf("marshaling tree snapshot: %w", err)
	}

	dwellJSON, err := json.Marshal(session.PerNodeDwell)
	if err != nil {
		return nil, fmt.Errorf("marshaling dwell map: %w", err)
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, storeErr("beginning persist transaction", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit.

	_, err = tx.Exec(ctx, `
		INSERT INTO sessions (id, owner_ref, seed_topic, started_at, ended_at,
			topic_count, total_dwell_ms, tags, tree, per_node_dwell)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		session.ID, session.OwnerRef, entry.SeedTopic, session.StartedAt, *session.EndedAt,
		session.TopicCount(), session.TotalDwellMs(), session.Tags, treeJSON, dwellJSON)
	if err != nil {
		return nil, storeErr("inserting session", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO archive_entries (session_id, owner_ref, seed_topic, indexed_terms, tags, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id) DO NOTHING`,
		entry.SessionID, entry.OwnerRef, entry.SeedTopic, entry.IndexedTerms, entry.Tags, entry.StartedAt)
	if err != nil {
		return nil, storeErr("inserting archive entry", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storeErr("committing persist transaction", err)
	}

	s.Log.WithFields(logrus.Fields{
		"session_id": session.ID,
		"owner_ref":  session.OwnerRef,
		"topics":     session.TopicCount(),
	}).Info("session persisted")

	return &entry, nil
}

// Get returns a persisted session by id, or models.ErrSessionNotFound.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var (
		session   models.Session
		treeJSON  []byte
		dwellJSON []byte
	)

	err := s.Pool.QueryRow(ctx, `
		SELECT id, owner_ref, started_at, ended_at, tags, tree, per_node_dwell
		FROM sessions WHERE id = $1`, sessionID).
		Scan(&session.ID, &session.OwnerRef, &session.StartedAt, &session.EndedAt,
			&session.Tags, &treeJSON, &dwellJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrSessionNotFound
		}

		return nil, storeErr("reading session", err)
	}

	if err := json.Unmarshal(treeJSON, &session.Tree); err != nil {
		return nil, fmt.Errorf("unmarshaling tree snapshot: %w", err)
	}

	if err := json.Unmarshal(dwellJSON, &session.PerNodeDwell); err != nil {
		return nil, fmt.Errorf("unmarshaling dwell map: %w", err)
	}

	return &session, nil
}

// ListByOwner returns session metadata for one owner, paginated and
// restartable via limit/offset. An unknown sort falls back to newest first.
func (s *SessionStore) ListByOwner(ctx context.Context, ownerRef, sort string, limit, offset int) ([]models.SessionMeta, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	order, ok := orderClauses[sort]
	if !ok {
		order = orderClauses[SortNewest]
	}

	rows, err := s.Pool.Query(ctx, `
		SELECT id, owner_ref, seed_topic, started_at, ended_at, topic_count, total_dwell_ms, tags
		FROM sessions WHERE owner_ref = $1
		ORDER BY `+order+` LIMIT $2 OFFSET $3`,
		ownerRef, limit, offset)
	if err != nil {
		return nil, storeErr("listing sessions", err)
	}
	defer rows.Close()

	var metas []models.SessionMeta

	for rows.Next() {
		var m models.SessionMeta
		if err := rows.Scan(&m.ID, &m.OwnerRef, &m.SeedTopic, &m.StartedAt, &m.EndedAt,
			&m.TopicCount, &m.TotalDwellMs, &m.Tags); err != nil {
			return nil, storeErr("scanning session row", err)
		}

		metas = append(metas, m)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating session rows", err)
	}

	return metas, nil
}

// GetEntry returns the archive entry for a session id, or
// models.ErrSessionNotFound.
func (s *SessionStore) GetEntry(ctx context.Context, sessionID string) (*models.ArchiveEntry, error) {
	var entry models.ArchiveEntry

	err := s.Pool.QueryRow(ctx, `
		SELECT session_id, owner_ref, seed_topic, indexed_terms, tags, started_at
		FROM archive_entries WHERE session_id = $1`, sessionID).
		Scan(&entry.SessionID, &entry.OwnerRef, &entry.SeedTopic,
			&entry.IndexedTerms, &entry.Tags, &entry.StartedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrSessionNotFound
		}

		return nil, storeErr("reading archive entry", err)
	}

	return &entry, nil
}

// ListEntries streams all archive entries, for index hydration at startup.
func (s *SessionStore) ListEntries(ctx context.Context) ([]models.ArchiveEntry, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, `
		SELECT session_id, owner_ref, seed_topic, indexed_terms, tags, started_at
		FROM archive_entries`)
	if err != nil {
		return nil, storeErr("listing archive entries", err)
	}
	defer rows.Close()

	var entries []models.ArchiveEntry

	for rows.Next() {
		var entry models.ArchiveEntry
		if err := rows.Scan(&entry.SessionID, &entry.OwnerRef, &entry.SeedTopic,
			&entry.IndexedTerms, &entry.Tags, &entry.StartedAt); err != nil {
			return nil, storeErr("scanning archive entry", err)
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating archive entries", err)
	}

	return entries, nil
}

// Stats returns aggregate archive counts for the stats endpoint.
func (s *SessionStore) Stats(ctx context.Context) (sessions int64, topics int64, err error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err = s.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(topic_count), 0) FROM sessions`).
		Scan(&sessions, &topics)
	if err != nil {
		return 0, 0, storeErr("reading stats", err)
	}

	return sessions, topics, nil
}
