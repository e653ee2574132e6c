package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// StatsSource reads persisted-session totals from the store.
type StatsSource interface {
	Stats(ctx context.Context) (sessions int64, topics int64, err error)
}

// LiveCounter reports live session and connection counts.
type LiveCounter interface {
	LiveCount() int
}

// ClientCounter reports connected WebSocket clients.
type ClientCounter interface {
	ClientCount() int
}

// StatsHandler serves the aggregate stats endpoint.
type StatsHandler struct {
	store StatsSource
	live  LiveCounter
	hub   ClientCounter
	log   *logrus.Logger
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(store StatsSource, live LiveCounter, hub ClientCounter, log *logrus.Logger) *StatsHandler {
	return &StatsHandler{store: store, live: live, hub: hub, log: log}
}

// GetStats handles GET /api/v1/stats.
func (h *StatsHandler) GetStats(c *gin.Context) {
	sessions, topics, err := h.store.Stats(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err, "reading stats")

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"persisted_sessions": sessions,
		"persisted_topics":   topics,
		"live_sessions":      h.live.LiveCount(),
		"ws_clients":         h.hub.ClientCount(),
	})
}
