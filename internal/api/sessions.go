package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nodelearn/nodelearn/internal/middleware"
	"github.com/nodelearn/nodelearn/internal/models"
)

// SessionHandler serves live-session endpoints.
type SessionHandler struct {
	svc ExplorerService
	log *logrus.Logger
}

// NewSessionHandler creates a SessionHandler with the given service and logger.
func NewSessionHandler(svc ExplorerService, log *logrus.Logger) *SessionHandler {
	return &SessionHandler{svc: svc, log: log}
}

// Start handles POST /api/v1/sessions.
func (h *SessionHandler) Start(c *gin.Context) {
	var req models.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	info, err := h.svc.StartSession(c.Request.Context(), middleware.OwnerFrom(c), req)
	if err != nil {
		respondServiceError(c, h.log, err, "starting session")

		return
	}

	c.JSON(http.StatusCreated, info)
}

// Seed handles POST /api/v1/sessions/seed — opens a session from a document.
func (h *SessionHandler) Seed(c *gin.Context) {
	var req models.SeedSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	info, seeds, err := h.svc.SeedFromDocument(
		c.Request.Context(), middleware.OwnerFrom(c), []byte(req.Content), req.MimeType, req.Tags)
	if err != nil {
		respondServiceError(c, h.log, err, "seeding session from document")

		return
	}

	c.JSON(http.StatusCreated, gin.H{"session": info, "seeds": seeds})
}

// Snapshot handles GET /api/v1/sessions/:id/snapshot.
func (h *SessionHandler) Snapshot(c *gin.Context) {
	snap, err := h.svc.Snapshot(c.Request.Context(), middleware.OwnerFrom(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, h.log, err, "reading snapshot")

		return
	}

	c.JSON(http.StatusOK, snap)
}

// Expand handles POST /api/v1/sessions/:id/expand.
func (h *SessionHandler) Expand(c *gin.Context) {
	var req models.ExpandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if req.NodeID == "" {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "node_id is required")

		return
	}

	result, err := h.svc.Expand(c.Request.Context(), middleware.OwnerFrom(c), c.Param("id"), req.NodeID, req.Depth)
	if err != nil {
		respondServiceError(c, h.log, err, "expanding node")

		return
	}

	c.JSON(http.StatusOK, result)
}

// Focus handles POST /api/v1/sessions/:id/focus.
func (h *SessionHandler) Focus(c *gin.Context) {
	var req models.FocusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if req.NodeID == "" {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "node_id is required")

		return
	}

	if err := h.svc.Focus(c.Request.Context(), middleware.OwnerFrom(c), c.Param("id"), req.NodeID, req.AtMs); err != nil {
		respondServiceError(c, h.log, err, "focusing node")

		return
	}

	c.Status(http.StatusNoContent)
}

// Blur handles POST /api/v1/sessions/:id/blur.
func (h *SessionHandler) Blur(c *gin.Context) {
	var req models.TimestampRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := h.svc.Blur(c.Request.Context(), middleware.OwnerFrom(c), c.Param("id"), req.AtMs); err != nil {
		respondServiceError(c, h.log, err, "blurring session")

		return
	}

	c.Status(http.StatusNoContent)
}

// RemoveNode handles DELETE /api/v1/sessions/:id/nodes/:nodeID.
func (h *SessionHandler) RemoveNode(c *gin.Context) {
	removed, err := h.svc.RemoveNode(c.Request.Context(), middleware.OwnerFrom(c), c.Param("id"), c.Param("nodeID"))
	if err != nil {
		respondServiceError(c, h.log, err, "removing node")

		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// End handles POST /api/v1/sessions/:id/end.
func (h *SessionHandler) End(c *gin.Context) {
	var req models.TimestampRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	meta, err := h.svc.EndSession(c.Request.Context(), middleware.OwnerFrom(c), c.Param("id"), req.AtMs)
	if err != nil {
		respondServiceError(c, h.log, err, "ending session")

		return
	}

	c.JSON(http.StatusOK, meta)
}
