package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/nodelearn/nodelearn/internal/api"
	"github.com/nodelearn/nodelearn/internal/models"
)

func TestSessionStart_Valid(t *testing.T) {
	t.Parallel()

	svc := &mockExplorer{
		startFn: func(_ context.Context, ownerRef string, req models.StartSessionRequest) (*models.SessionInfo, error) {
			if ownerRef != testOwnerID {
				t.Errorf("owner = %q, want %q", ownerRef, testOwnerID)
			}
			return &models.SessionInfo{
				ID:        "sess-1",
				RootID:    "n1",
				SeedTopic: models.Topic{Norm: "photosynthesis", Display: req.SeedTopic},
				StartedAt: time.Now(),
			}, nil
		},
	}

	r := newTestRouter()
	h := api.NewSessionHandler(svc, testLogger())
	r.POST("/sessions", h.Start)

	w := doRequest(r, http.MethodPost, "/sessions", `{"seed_topic":"Photosynthesis"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var info models.SessionInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if info.ID != "sess-1" || info.RootID != "n1" {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestSessionStart_EmptySeed(t *testing.T) {
	t.Parallel()

	svc := &mockExplorer{
		startFn: func(_ context.Context, _ string, _ models.StartSessionRequest) (*models.SessionInfo, error) {
			return nil, models.ErrInvalidTopic
		},
	}

	r := newTestRouter()
	h := api.NewSessionHandler(svc, testLogger())
	r.POST("/sessions", h.Start)

	w := doRequest(r, http.MethodPost, "/sessions", `{"seed_topic":""}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSessionStart_OverlongSeed(t *testing.T) {
	t.Parallel()

	svc := &mockExplorer{
		startFn: func(_ context.Context, _ string, _ models.StartSessionRequest) (*models.SessionInfo, error) {
			t.Error("service reached with invalid request")
			return nil, nil
		},
	}

	r := newTestRouter()
	h := api.NewSessionHandler(svc, testLogger())
	r.POST("/sessions", h.Start)

	body := fmt.Sprintf(`{"seed_topic":%q}`, strings.Repeat("a", 501))
	w := doRequest(r, http.MethodPost, "/sessions", body)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Code != "validation_error" {
		t.Errorf("code = %q, want validation_error", resp.Code)
	}
}

func TestSessionSeed_UnsupportedDocument(t *testing.T) {
	t.Parallel()

	svc := &mockExplorer{
		seedFn: func(_ context.Context, _ string, _ []byte, mimeType string, _ []string) (*models.SessionInfo, []string, error) {
			return nil, nil, fmt.Errorf("%w: %q", models.ErrUnsupportedDocument, mimeType)
		},
	}

	r := newTestRouter()
	h := api.NewSessionHandler(svc, testLogger())
	r.POST("/sessions/seed", h.Seed)

	w := doRequest(r, http.MethodPost, "/sessions/seed", `{"content":"data","mime_type":"application/pdf"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSessionSeed_Valid(t *testing.T) {
	t.Parallel()

	svc := &mockExplorer{
		seedFn: func(_ context.Context, _ string, document []byte, mimeType string, _ []string) (*models.SessionInfo, []string, error) {
			if mimeType != "text/markdown" {
				t.Errorf("mime = %q", mimeType)
			}
			if len(document) == 0 {
				t.Error("empty document")
			}
			return &models.SessionInfo{ID: "sess-1", RootID: "n1"}, []string{"Photosynthesis", "Calvin Cycle"}, nil
		},
	}

	r := newTestRouter()
	h := api.NewSessionHandler(svc, testLogger())
	r.POST("/sessions/seed", h.Seed)

	w := doRequest(r, http.MethodPost, "/sessions/seed", `{"content":"# Photosynthesis","mime_type":"text/markdown"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Session models.SessionInfo `json:"session"`
		Seeds   []string           `json:"seeds"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if len(resp.Seeds) != 2 {
		t.Errorf("seeds = %v, want 2", resp.Seeds)
	}
}

func TestSessionSeed_MissingContent(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewSessionHandler(&mockExplorer{}, testLogger())
	r.POST("/sessions/seed", h.Seed)

	w := doRequest(r, http.MethodPost, "/sessions/seed", `{"mime_type":"text/plain"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSessionSnapshot_NotFound(t *testing.T) {
	t.Parallel()

	svc := &mockExplorer{
		snapshotFn: func(_ context.Context, _, _ string) (*models.TreeSnapshot, error) {
			return nil, models.ErrSessionNotFound
		},
	}

	r := newTestRouter()
	h := api.NewSessionHandler(svc, testLogger())
	r.GET("/sessions/:id/snapshot", h.Snapshot)

	w := doRequest(r, http.MethodGet, "/sessions/missing/snapshot", "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSessionExpand_OK(t *testing.T) {
	t.Parallel()

	svc := &mockExplorer{
		expandFn: func(_ context.Context, _, sessionID, nodeID string, depth int) (*models.ExpandResult, error) {
			if sessionID != "sess-1" || nodeID != "n1" || depth != 2 {
				t.Errorf("args = %q %q %d", sessionID, nodeID, depth)
			}
			return &models.ExpandResult{
				NodeID:   nodeID,
				Accepted: []models.Topic{{Norm: "chlorophyll", Display: "Chlorophyll"}},
			}, nil
		},
	}

	r := newTestRouter()
	h := api.NewSessionHandler(svc, testLogger())
	r.POST("/sessions/:id/expand", h.Expand)

	w := doRequest(r, http.MethodPost, "/sessions/sess-1/expand", `{"node_id":"n1","depth":2}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result models.ExpandResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(result.Accepted) != 1 {
		t.Errorf("accepted = %v", result.Accepted)
	}
}

func TestSessionExpand_MissingNodeID(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewSessionHandler(&mockExplorer{}, testLogger())
	r.POST("/sessions/:id/expand", h.Expand)

	w := doRequest(r, http.MethodPost, "/sessions/sess-1/expand", `{"depth":1}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSessionExpand_Conflict(t *testing.T) {
	t.Parallel()

	svc := &mockExplorer{
		expandFn: func(_ context.Context, _, _, _ string, _ int) (*models.ExpandResult, error) {
			return nil, models.ErrExpansionInProgress
		},
	}

	r := newTestRouter()
	h := api.NewSessionHandler(svc, testLogger())
	r.POST("/sessions/:id/expand", h.Expand)

	w := doRequest(r, http.MethodPost, "/sessions/sess-1/expand", `{"node_id":"n1"}`)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSessionExpand_ProviderError(t *testing.T) {
	t.Parallel()

	svc := &mockExplorer{
		expandFn: func(_ context.Context, _, _, _ string, _ int) (*models.ExpandResult, error) {
			return nil, models.ErrSuggestionProvider
		},
	}

	r := newTestRouter()
	h := api.NewSessionHandler(svc, testLogger())
	r.POST("/sessions/:id/expand", h.Expand)

	w := doRequest(r, http.MethodPost, "/sessions/sess-1/expand", `{"node_id":"n1"}`)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSessionFocus_OK(t *testing.T) {
	t.Parallel()

	svc := &mockExplorer{
		focusFn: func(_ context.Context, _, _, nodeID string, atMs int64) error {
			if nodeID != "n2" || atMs != 1700000000000 {
				t.Errorf("args = %q %d", nodeID, atMs)
			}
			return nil
		},
	}

	r := newTestRouter()
	h := api.NewSessionHandler(svc, testLogger())
	r.POST("/sessions/:id/focus", h.Focus)

	w := doRequest(r, http.MethodPost, "/sessions/sess-1/focus", `{"node_id":"n2","at_ms":1700000000000}`)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSessionFocus_BackwardsTimestamp(t *testing.T) {
	t.Parallel()

	svc := &mockExplorer{
		focusFn: func(_ context.Context, _, _, _ string, _ int64) error {
			return models.ErrInvalidTimestamp
		},
	}

	r := newTestRouter()
	h := api.NewSessionHandler(svc, testLogger())
	r.POST("/sessions/:id/focus", h.Focus)

	w := doRequest(r, http.MethodPost, "/sessions/sess-1/focus", `{"node_id":"n2","at_ms":1}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSessionBlur_OK(t *testing.T) {
	t.Parallel()

	svc := &mockExplorer{
		blurFn: func(_ context.Context, _, _ string, _ int64) error { return nil },
	}

	r := newTestRouter()
	h := api.NewSessionHandler(svc, testLogger())
	r.POST("/sessions/:id/blur", h.Blur)

	w := doRequest(r, http.MethodPost, "/sessions/sess-1/blur", `{}`)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSessionRemoveNode_OK(t *testing.T) {
	t.Parallel()

	svc := &mockExplorer{
		removeFn: func(_ context.Context, _, _, nodeID string) ([]string, error) {
			return []string{nodeID, "n3"}, nil
		},
	}

	r := newTestRouter()
	h := api.NewSessionHandler(svc, testLogger())
	r.DELETE("/sessions/:id/nodes/:nodeID", h.RemoveNode)

	w := doRequest(r, http.MethodDelete, "/sessions/sess-1/nodes/n2", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Removed []string `json:"removed"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(resp.Removed) != 2 {
		t.Errorf("removed = %v, want 2 ids", resp.Removed)
	}
}

func TestSessionRemoveNode_Root(t *testing.T) {
	t.Parallel()

	svc := &mockExplorer{
		removeFn: func(_ context.Context, _, _, _ string) ([]string, error) {
			return nil, models.ErrRootRemoval
		},
	}

	r := newTestRouter()
	h := api.NewSessionHandler(svc, testLogger())
	r.DELETE("/sessions/:id/nodes/:nodeID", h.RemoveNode)

	w := doRequest(r, http.MethodDelete, "/sessions/sess-1/nodes/n1", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSessionEnd_OK(t *testing.T) {
	t.Parallel()

	svc := &mockExplorer{
		endFn: func(_ context.Context, _, sessionID string, _ int64) (*models.SessionMeta, error) {
			return &models.SessionMeta{ID: sessionID, SeedTopic: "Photosynthesis", TopicCount: 3}, nil
		},
	}

	r := newTestRouter()
	h := api.NewSessionHandler(svc, testLogger())
	r.POST("/sessions/:id/end", h.End)

	w := doRequest(r, http.MethodPost, "/sessions/sess-1/end", `{}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var meta models.SessionMeta
	if err := json.Unmarshal(w.Body.Bytes(), &meta); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if meta.TopicCount != 3 {
		t.Errorf("topic count = %d, want 3", meta.TopicCount)
	}
}

func TestSessionEnd_StoreUnavailable(t *testing.T) {
	t.Parallel()

	svc := &mockExplorer{
		endFn: func(_ context.Context, _, _ string, _ int64) (*models.SessionMeta, error) {
			return nil, models.ErrStoreUnavailable
		},
	}

	r := newTestRouter()
	h := api.NewSessionHandler(svc, testLogger())
	r.POST("/sessions/:id/end", h.End)

	w := doRequest(r, http.MethodPost, "/sessions/sess-1/end", `{}`)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", w.Code, w.Body.String())
	}
}
