package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nodelearn/nodelearn/internal/middleware"
)

// HistoryHandler serves persisted-session history endpoints.
type HistoryHandler struct {
	svc HistoryService
	log *logrus.Logger
}

// NewHistoryHandler creates a HistoryHandler with the given service and logger.
func NewHistoryHandler(svc HistoryService, log *logrus.Logger) *HistoryHandler {
	return &HistoryHandler{svc: svc, log: log}
}

// List handles GET /api/v1/history.
func (h *HistoryHandler) List(c *gin.Context) {
	sort := c.DefaultQuery("sort", "newest")
	limit := parseInt(c.DefaultQuery("limit", "20"), 20)
	offset := parseOffset(c.DefaultQuery("offset", "0"))

	sessions, err := h.svc.List(c.Request.Context(), middleware.OwnerFrom(c), sort, limit, offset)
	if err != nil {
		respondServiceError(c, h.log, err, "listing history")

		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// Get handles GET /api/v1/history/:id.
func (h *HistoryHandler) Get(c *gin.Context) {
	session, err := h.svc.Get(c.Request.Context(), middleware.OwnerFrom(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, h.log, err, "getting session")

		return
	}

	c.JSON(http.StatusOK, session)
}
