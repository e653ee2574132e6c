package session

import (
	"sync"
	"time"

	"github.com/nodelearn/nodelearn/internal/models"
	"github.com/nodelearn/nodelearn/internal/tree"
)

// Live is one in-flight exploration session. All access goes through
// WithLock or the expansion guard; the zero value is not usable.
type Live struct {
	ID        string
	OwnerRef  string
	StartedAt time.Time
	Tags      []string
	Tree      *tree.Tree
	Timer     *Timer

	mu        sync.Mutex
	expanding bool
	ended     bool
	record    *models.Session
}

// WithLock runs fn while holding the session lock. Focus/blur, snapshot and
// tree mutations all go through here so a suspended expansion never
// interleaves with them.
func (l *Live) WithLock(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ended {
		return models.ErrSessionEnded
	}

	return fn()
}

// BeginExpand claims the single-flight expansion slot. A second concurrent
// expansion on the same session is rejected with models.ErrExpansionInProgress
// instead of interleaved.
func (l *Live) BeginExpand() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ended {
		return models.ErrSessionEnded
	}

	if l.expanding {
		return models.ErrExpansionInProgress
	}

	l.expanding = true

	return nil
}

// EndExpand releases the expansion slot. Called on every exit path.
func (l *Live) EndExpand() {
	l.mu.Lock()
	l.expanding = false
	l.mu.Unlock()
}

// Close marks the session ended and returns its immutable record. The final
// timer flush happens here so the persisted dwell totals include the last
// focused interval. Closing twice is idempotent: the second call returns the
// same record without flushing again, so nothing double-counts.
func (l *Live) Close(at time.Time) (*models.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ended {
		return l.record, nil
	}

	if err := l.Timer.Flush(at); err != nil {
		return nil, err
	}

	for id, ms := range l.Timer.PerNodeDwell() {
		l.Tree.SetDwell(id, ms)
	}

	l.ended = true
	ended := at
	l.record = &models.Session{
		ID:           l.ID,
		OwnerRef:     l.OwnerRef,
		StartedAt:    l.StartedAt,
		EndedAt:      &ended,
		Tree:         l.Tree.Snapshot(),
		PerNodeDwell: l.Timer.PerNodeDwell(),
		Tags:         append([]string(nil), l.Tags...),
	}

	return l.record, nil
}

// Registry tracks live sessions by id. Independent sessions proceed fully in
// parallel; serialization is per session, inside Live.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Live
	now      func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Live),
		now:      time.Now,
	}
}

// Start opens a session for ownerRef rooted at seedTopic.
func (r *Registry) Start(ownerRef, seedTopic string, tags []string) (*Live, error) {
	t := tree.New()
	if _, err := t.CreateRoot(seedTopic); err != nil {
		return nil, err
	}

	live := &Live{
		ID:        models.NewSessionID(),
		OwnerRef:  ownerRef,
		StartedAt: r.now(),
		Tags:      append([]string(nil), tags...),
		Tree:      t,
		Timer:     NewTimer(),
	}

	r.mu.Lock()
	r.sessions[live.ID] = live
	r.mu.Unlock()

	return live, nil
}

// Get returns the live session or models.ErrSessionNotFound.
func (r *Registry) Get(id string) (*Live, error) {
	r.mu.RLock()
	live, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return nil, models.ErrSessionNotFound
	}

	return live, nil
}

// Remove drops a session from the registry, typically after a successful
// persist. Removing an unknown id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}
