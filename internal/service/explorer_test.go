package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nodelearn/nodelearn/internal/archive"
	"github.com/nodelearn/nodelearn/internal/config"
	"github.com/nodelearn/nodelearn/internal/models"
	"github.com/nodelearn/nodelearn/internal/session"
	"github.com/nodelearn/nodelearn/internal/ws"
)

const testOwner = "owner-1"

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)

	return l
}

func testConfig() *config.Config {
	return &config.Config{
		MaxResults:        5,
		DuplicatePolicy:   config.DuplicateCrossLink,
		ResuggestPolicy:   config.ResuggestNever,
		SuggestionTimeout: 5 * time.Second,
	}
}

func newTestExplorer(provider *mockProvider, store *mockPersister, hub *mockHub) (*Explorer, *archive.Index) {
	if provider == nil {
		provider = &mockProvider{
			suggestFn: func(context.Context, models.SuggestionRequest) ([]models.Candidate, error) {
				return nil, nil
			},
		}
	}
	if store == nil {
		store = &mockPersister{}
	}

	index := archive.NewIndex()

	var broadcaster EventBroadcaster
	if hub != nil {
		broadcaster = hub
	}

	return NewExplorer(session.NewRegistry(), provider, store, index, broadcaster, testConfig(), testLogger()), index
}

func startTestSession(t *testing.T, e *Explorer) *models.SessionInfo {
	t.Helper()

	info, err := e.StartSession(context.Background(), testOwner, models.StartSessionRequest{
		SeedTopic: "Photosynthesis",
		Tags:      []string{"biology"},
	})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	return info
}

func TestStartSession(t *testing.T) {
	e, _ := newTestExplorer(nil, nil, nil)

	info := startTestSession(t, e)

	if info.ID == "" || info.RootID == "" {
		t.Fatalf("incomplete session info: %+v", info)
	}
	if info.SeedTopic.Norm != "photosynthesis" {
		t.Errorf("seed norm = %q, want photosynthesis", info.SeedTopic.Norm)
	}

	snap, err := e.Snapshot(context.Background(), testOwner, info.ID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Nodes) != 1 || snap.RootID != info.RootID {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestStartSessionInvalidSeed(t *testing.T) {
	e, _ := newTestExplorer(nil, nil, nil)

	_, err := e.StartSession(context.Background(), testOwner, models.StartSessionRequest{SeedTopic: ""})
	if !errors.Is(err, models.ErrInvalidTopic) {
		t.Fatalf("error = %v, want ErrInvalidTopic", err)
	}
}

func TestSnapshotOwnerScoped(t *testing.T) {
	e, _ := newTestExplorer(nil, nil, nil)
	info := startTestSession(t, e)

	_, err := e.Snapshot(context.Background(), "other-owner", info.ID)
	if !errors.Is(err, models.ErrSessionNotFound) {
		t.Fatalf("error = %v, want ErrSessionNotFound for foreign owner", err)
	}
}

func TestExpandMergesCandidates(t *testing.T) {
	provider := &mockProvider{
		suggestFn: func(_ context.Context, req models.SuggestionRequest) ([]models.Candidate, error) {
			return []models.Candidate{
				{Topic: "Chlorophyll"},
				{Topic: "Calvin Cycle"},
				{Topic: "Photosynthesis"}, // ancestor of the expanded node
			}, nil
		},
	}
	hub := &mockHub{}
	e, _ := newTestExplorer(provider, nil, hub)
	info := startTestSession(t, e)

	result, err := e.Expand(context.Background(), testOwner, info.ID, info.RootID, 1)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}

	// The ancestor candidate is dropped; the other two become children.
	if len(result.Accepted) != 2 {
		t.Fatalf("accepted %d, want 2: %+v", len(result.Accepted), result.Accepted)
	}
	if result.Accepted[0].Norm != "chlorophyll" || result.Accepted[1].Norm != "calvin cycle" {
		t.Errorf("accepted order wrong: %+v", result.Accepted)
	}
	if got := hub.byType(ws.EventNodeAdded); got != 2 {
		t.Errorf("node_added events = %d, want 2", got)
	}

	// The same batch again yields nothing: all candidates were offered.
	again, err := e.Expand(context.Background(), testOwner, info.ID, info.RootID, 1)
	if err != nil {
		t.Fatalf("second Expand: %v", err)
	}
	if len(again.Accepted) != 0 {
		t.Errorf("second expand accepted %d, want 0", len(again.Accepted))
	}

	snap, err := e.Snapshot(context.Background(), testOwner, info.ID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Nodes) != 3 {
		t.Errorf("tree has %d nodes, want 3", len(snap.Nodes))
	}
}

func TestExpandCrossLinksDuplicates(t *testing.T) {
	batches := [][]models.Candidate{
		{{Topic: "Chlorophyll"}, {Topic: "Stomata"}},
		{{Topic: "Stomata"}}, // already owned by a sibling
	}
	call := 0
	provider := &mockProvider{
		suggestFn: func(context.Context, models.SuggestionRequest) ([]models.Candidate, error) {
			batch := batches[call]
			if call < len(batches)-1 {
				call++
			}
			return batch, nil
		},
	}
	hub := &mockHub{}
	e, _ := newTestExplorer(provider, nil, hub)
	info := startTestSession(t, e)

	first, err := e.Expand(context.Background(), testOwner, info.ID, info.RootID, 1)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(first.Accepted) != 2 {
		t.Fatalf("accepted %d, want 2", len(first.Accepted))
	}

	// Expand the chlorophyll node; "Stomata" exists elsewhere, so the
	// policy records a cross-link instead of a duplicate node.
	var chlorophyllID string
	snap, _ := e.Snapshot(context.Background(), testOwner, info.ID)
	for _, n := range snap.Nodes {
		if n.Topic.Norm == "chlorophyll" {
			chlorophyllID = n.ID
		}
	}

	second, err := e.Expand(context.Background(), testOwner, info.ID, chlorophyllID, 1)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(second.Accepted) != 0 {
		t.Errorf("accepted %d, want 0", len(second.Accepted))
	}
	if len(second.CrossLinks) != 1 {
		t.Fatalf("cross-links = %v, want one", second.CrossLinks)
	}
	if got := hub.byType(ws.EventCrossLinked); got != 1 {
		t.Errorf("cross_linked events = %d, want 1", got)
	}

	snap, _ = e.Snapshot(context.Background(), testOwner, info.ID)
	if len(snap.Nodes) != 3 {
		t.Errorf("tree has %d nodes, want 3 (no duplicate)", len(snap.Nodes))
	}
}

func TestExpandProviderFailureLeavesTreeUntouched(t *testing.T) {
	provider := &mockProvider{
		suggestFn: func(context.Context, models.SuggestionRequest) ([]models.Candidate, error) {
			return nil, models.ErrSuggestionProvider
		},
	}
	e, _ := newTestExplorer(provider, nil, nil)
	info := startTestSession(t, e)

	_, err := e.Expand(context.Background(), testOwner, info.ID, info.RootID, 1)
	if !errors.Is(err, models.ErrSuggestionProvider) {
		t.Fatalf("error = %v, want ErrSuggestionProvider", err)
	}

	snap, _ := e.Snapshot(context.Background(), testOwner, info.ID)
	if len(snap.Nodes) != 1 {
		t.Errorf("tree has %d nodes after failed expand, want 1", len(snap.Nodes))
	}

	// The failed expansion released the single-flight slot.
	provider.suggestFn = func(context.Context, models.SuggestionRequest) ([]models.Candidate, error) {
		return []models.Candidate{{Topic: "Chlorophyll"}}, nil
	}
	result, err := e.Expand(context.Background(), testOwner, info.ID, info.RootID, 1)
	if err != nil {
		t.Fatalf("retry Expand: %v", err)
	}
	if len(result.Accepted) != 1 {
		t.Errorf("retry accepted %d, want 1", len(result.Accepted))
	}
}

func TestExpandSingleFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	provider := &mockProvider{
		suggestFn: func(ctx context.Context, _ models.SuggestionRequest) ([]models.Candidate, error) {
			close(started)
			<-release
			return []models.Candidate{{Topic: "Chlorophyll"}}, nil
		},
	}
	e, _ := newTestExplorer(provider, nil, nil)
	info := startTestSession(t, e)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := e.Expand(context.Background(), testOwner, info.ID, info.RootID, 1); err != nil {
			t.Errorf("first Expand: %v", err)
		}
	}()

	<-started

	// A second expansion while one is in flight is rejected, but focus
	// transitions still work.
	if _, err := e.Expand(context.Background(), testOwner, info.ID, info.RootID, 1); !errors.Is(err, models.ErrExpansionInProgress) {
		t.Errorf("concurrent Expand error = %v, want ErrExpansionInProgress", err)
	}
	if err := e.Focus(context.Background(), testOwner, info.ID, info.RootID, 0); err != nil {
		t.Errorf("Focus during expansion: %v", err)
	}

	close(release)
	wg.Wait()
}

func TestExpandContextPath(t *testing.T) {
	provider := &mockProvider{
		suggestFn: func(context.Context, models.SuggestionRequest) ([]models.Candidate, error) {
			return []models.Candidate{{Topic: "Thylakoid"}}, nil
		},
	}
	e, _ := newTestExplorer(provider, nil, nil)
	info := startTestSession(t, e)

	first, err := e.Expand(context.Background(), testOwner, info.ID, info.RootID, 1)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}

	if _, err := e.Expand(context.Background(), testOwner, info.ID, first.Accepted[0].Norm, 1); err == nil {
		t.Fatal("expanding by topic norm should fail, ids are required")
	}

	snap, _ := e.Snapshot(context.Background(), testOwner, info.ID)
	var thylakoidID string
	for _, n := range snap.Nodes {
		if n.Topic.Norm == "thylakoid" {
			thylakoidID = n.ID
		}
	}

	if _, err := e.Expand(context.Background(), testOwner, info.ID, thylakoidID, 2); err != nil {
		t.Fatalf("Expand child: %v", err)
	}

	req := provider.requests[len(provider.requests)-1]
	want := []string{"Photosynthesis", "Thylakoid"}
	if len(req.ContextPath) != len(want) {
		t.Fatalf("context path = %v, want %v", req.ContextPath, want)
	}
	for i := range want {
		if req.ContextPath[i] != want[i] {
			t.Errorf("context path[%d] = %q, want %q", i, req.ContextPath[i], want[i])
		}
	}
	if req.Depth != 2 {
		t.Errorf("depth = %d, want 2", req.Depth)
	}
}

func TestFocusBlurDwell(t *testing.T) {
	e, _ := newTestExplorer(nil, nil, nil)
	info := startTestSession(t, e)

	start := time.Now().UnixMilli()

	if err := e.Focus(context.Background(), testOwner, info.ID, info.RootID, start); err != nil {
		t.Fatalf("Focus: %v", err)
	}
	if err := e.Blur(context.Background(), testOwner, info.ID, start+1200); err != nil {
		t.Fatalf("Blur: %v", err)
	}

	// Backwards timestamps are rejected.
	err := e.Focus(context.Background(), testOwner, info.ID, info.RootID, start-1000)
	if !errors.Is(err, models.ErrInvalidTimestamp) {
		t.Fatalf("error = %v, want ErrInvalidTimestamp", err)
	}

	meta, err := e.EndSession(context.Background(), testOwner, info.ID, start+2000)
	if err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	if meta.TotalDwellMs != 1200 {
		t.Errorf("total dwell = %d, want 1200", meta.TotalDwellMs)
	}
}

func TestSnapshotReportsLiveDwell(t *testing.T) {
	e, _ := newTestExplorer(nil, nil, nil)
	info := startTestSession(t, e)

	start := time.Now().UnixMilli()

	if err := e.Focus(context.Background(), testOwner, info.ID, info.RootID, start); err != nil {
		t.Fatalf("Focus: %v", err)
	}
	if err := e.Blur(context.Background(), testOwner, info.ID, start+1000); err != nil {
		t.Fatalf("Blur: %v", err)
	}

	// Dwell already accumulated must be visible on a live snapshot, not
	// only after the session ends.
	snap, err := e.Snapshot(context.Background(), testOwner, info.ID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	var rootDwell int64
	for _, n := range snap.Nodes {
		if n.ID == info.RootID {
			rootDwell = n.DwellMs
		}
	}
	if rootDwell != 1000 {
		t.Errorf("live snapshot root DwellMs = %d, want 1000", rootDwell)
	}

	// A second focus interval stacks onto the same node.
	if err := e.Focus(context.Background(), testOwner, info.ID, info.RootID, start+2000); err != nil {
		t.Fatalf("Focus: %v", err)
	}
	if err := e.Blur(context.Background(), testOwner, info.ID, start+2500); err != nil {
		t.Fatalf("Blur: %v", err)
	}

	snap, err = e.Snapshot(context.Background(), testOwner, info.ID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	for _, n := range snap.Nodes {
		if n.ID == info.RootID && n.DwellMs != 1500 {
			t.Errorf("live snapshot root DwellMs = %d, want 1500", n.DwellMs)
		}
	}
}

func TestFocusUnknownNode(t *testing.T) {
	e, _ := newTestExplorer(nil, nil, nil)
	info := startTestSession(t, e)

	err := e.Focus(context.Background(), testOwner, info.ID, "missing", 0)
	if !errors.Is(err, models.ErrNodeNotFound) {
		t.Fatalf("error = %v, want ErrNodeNotFound", err)
	}
}

func TestRemoveNodeDropsDwell(t *testing.T) {
	provider := &mockProvider{
		suggestFn: func(context.Context, models.SuggestionRequest) ([]models.Candidate, error) {
			return []models.Candidate{{Topic: "Chlorophyll"}}, nil
		},
	}
	store := &mockPersister{}
	e, _ := newTestExplorer(provider, store, nil)
	info := startTestSession(t, e)

	if _, err := e.Expand(context.Background(), testOwner, info.ID, info.RootID, 1); err != nil {
		t.Fatalf("Expand: %v", err)
	}

	snap, _ := e.Snapshot(context.Background(), testOwner, info.ID)
	var childID string
	for _, n := range snap.Nodes {
		if n.ID != info.RootID {
			childID = n.ID
		}
	}

	start := time.Now().UnixMilli()
	if err := e.Focus(context.Background(), testOwner, info.ID, childID, start); err != nil {
		t.Fatalf("Focus: %v", err)
	}
	if err := e.Blur(context.Background(), testOwner, info.ID, start+5000); err != nil {
		t.Fatalf("Blur: %v", err)
	}

	removed, err := e.RemoveNode(context.Background(), testOwner, info.ID, childID)
	if err != nil {
		t.Fatalf("RemoveNode: %v", err)
	}
	if len(removed) != 1 {
		t.Fatalf("removed %d, want 1", len(removed))
	}

	meta, err := e.EndSession(context.Background(), testOwner, info.ID, start+6000)
	if err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	// The removed child's 5000ms of dwell is gone with it.
	if meta.TotalDwellMs != 0 {
		t.Errorf("total dwell = %d, want 0", meta.TotalDwellMs)
	}
	if meta.TopicCount != 1 {
		t.Errorf("topic count = %d, want 1", meta.TopicCount)
	}
}

func TestEndSessionPersistsAndIndexes(t *testing.T) {
	store := &mockPersister{}
	hub := &mockHub{}
	e, index := newTestExplorer(nil, store, hub)
	info := startTestSession(t, e)

	meta, err := e.EndSession(context.Background(), testOwner, info.ID, 0)
	if err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	if meta.SeedTopic != "Photosynthesis" {
		t.Errorf("seed = %q, want Photosynthesis", meta.SeedTopic)
	}
	if store.count() != 1 {
		t.Errorf("persisted %d sessions, want 1", store.count())
	}
	if index.Len() != 1 {
		t.Errorf("index has %d entries, want 1", index.Len())
	}
	if got := hub.byType(ws.EventSessionEnded); got != 1 {
		t.Errorf("session_ended events = %d, want 1", got)
	}

	// The live session is gone.
	if _, err := e.Snapshot(context.Background(), testOwner, info.ID); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("snapshot after end error = %v, want ErrSessionNotFound", err)
	}
}

func TestEndSessionRetryAfterStoreFailure(t *testing.T) {
	failing := true
	store := &mockPersister{
		persistFn: func(_ context.Context, s *models.Session) (*models.ArchiveEntry, error) {
			if failing {
				return nil, models.ErrStoreUnavailable
			}
			entry := archive.EntryFromSession(s)
			return &entry, nil
		},
	}
	e, _ := newTestExplorer(nil, store, nil)
	info := startTestSession(t, e)

	_, err := e.EndSession(context.Background(), testOwner, info.ID, 0)
	if !errors.Is(err, models.ErrStoreUnavailable) {
		t.Fatalf("error = %v, want ErrStoreUnavailable", err)
	}

	// Retry succeeds and persists the same closed record.
	failing = false

	meta, err := e.EndSession(context.Background(), testOwner, info.ID, 0)
	if err != nil {
		t.Fatalf("retry EndSession: %v", err)
	}
	if meta.ID != info.ID {
		t.Errorf("meta id = %q, want %q", meta.ID, info.ID)
	}
	if store.count() != 2 {
		t.Errorf("persist attempts = %d, want 2", store.count())
	}
	if store.persisted[0] != store.persisted[1] {
		t.Error("retry persisted a different record")
	}
}

func TestSeedFromDocument(t *testing.T) {
	e, _ := newTestExplorer(nil, nil, nil)

	doc := []byte("# Photosynthesis\n\n## Light Reactions\n\n## Calvin Cycle\n")

	info, seeds, err := e.SeedFromDocument(context.Background(), testOwner, doc, "text/markdown", nil)
	if err != nil {
		t.Fatalf("SeedFromDocument: %v", err)
	}
	if len(seeds) != 3 {
		t.Fatalf("seeds = %v, want 3", seeds)
	}
	if info.SeedTopic.Norm != "photosynthesis" {
		t.Errorf("root = %q, want photosynthesis", info.SeedTopic.Norm)
	}

	snap, err := e.Snapshot(context.Background(), testOwner, info.ID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Nodes) != 3 {
		t.Errorf("tree has %d nodes, want root plus two children", len(snap.Nodes))
	}
}

func TestSeedFromDocumentUnsupported(t *testing.T) {
	e, _ := newTestExplorer(nil, nil, nil)

	_, _, err := e.SeedFromDocument(context.Background(), testOwner, []byte("x"), "application/pdf", nil)
	if !errors.Is(err, models.ErrUnsupportedDocument) {
		t.Fatalf("error = %v, want ErrUnsupportedDocument", err)
	}
}
