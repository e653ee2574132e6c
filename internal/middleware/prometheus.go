package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nodelearn/nodelearn/internal/metrics"
)

// PrometheusMiddleware observes request duration and count per route
// pattern. Labeling by pattern rather than raw path keeps cardinality
// bounded when session and node IDs appear in the URL; requests that match
// no route collapse into a single "unknown" series.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}

		status := strconv.Itoa(c.Writer.Status())
		metrics.RequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
	}
}
