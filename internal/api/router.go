package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/nodelearn/nodelearn/internal/dbpool"
	"github.com/nodelearn/nodelearn/internal/middleware"
	"github.com/nodelearn/nodelearn/internal/ws"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log         *logrus.Logger
	Pool        *dbpool.Pool
	Hub         *ws.Hub
	Explorer    ExplorerService
	History     HistoryService
	Search      SearchService
	Stats       StatsSource
	Live        LiveCounter
	CORSOrigins []string
	Version     string
	Provider    string
}

// Router-level limits.
const (
	maxBodySize = 4 << 20 // 4 MB, documents included
	rateLimit   = 50      // requests per second per IP
	rateBurst   = 100     // token bucket burst size
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", middleware.OwnerHeader},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, rateLimit, rateBurst).Handler())
	r.Use(middleware.PrometheusMiddleware())

	// Metrics endpoint (outside the API group, like health).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Pool, log, deps.Version, deps.Provider)
	sessions := NewSessionHandler(deps.Explorer, log)
	history := NewHistoryHandler(deps.History, log)
	search := NewSearchHandler(deps.Search, log)
	stats := NewStatsHandler(deps.Stats, deps.Live, deps.Hub, log)

	// Health and readiness.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// All other routes resolve the caller's owner identity.
	api.Use(middleware.Owner())

	// Live sessions.
	api.POST("/sessions", sessions.Start)
	api.POST("/sessions/seed", sessions.Seed)
	api.GET("/sessions/:id/snapshot", sessions.Snapshot)
	api.POST("/sessions/:id/expand", sessions.Expand)
	api.POST("/sessions/:id/focus", sessions.Focus)
	api.POST("/sessions/:id/blur", sessions.Blur)
	api.DELETE("/sessions/:id/nodes/:nodeID", sessions.RemoveNode)
	api.POST("/sessions/:id/end", sessions.End)

	// Session history.
	api.GET("/history", history.List)
	api.GET("/history/:id", history.Get)

	// Archive search.
	api.GET("/archive/search", search.Search)

	// Stats.
	api.GET("/stats", stats.GetStats)

	// WebSocket event stream.
	api.GET("/sessions/:id/ws", wsHandler(ctx, log, deps.Hub, deps.CORSOrigins))
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
