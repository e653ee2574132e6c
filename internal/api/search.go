package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nodelearn/nodelearn/internal/middleware"
)

// SearchHandler serves the archive search endpoint.
type SearchHandler struct {
	svc SearchService
	log *logrus.Logger
}

// NewSearchHandler creates a SearchHandler with the given service and logger.
func NewSearchHandler(svc SearchService, log *logrus.Logger) *SearchHandler {
	return &SearchHandler{svc: svc, log: log}
}

// Search handles GET /api/v1/archive/search.
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if strings.TrimSpace(query) == "" {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "query parameter 'q' is required")

		return
	}

	var tags []string
	if raw := c.Query("tags"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}

	limit := parseInt(c.DefaultQuery("limit", "20"), 20)

	results, err := h.svc.Search(c.Request.Context(), middleware.OwnerFrom(c), query, tags, limit)
	if err != nil {
		respondServiceError(c, h.log, err, "searching archive")

		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}
