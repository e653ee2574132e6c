package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// RequestIDKey is the gin context key holding the canonical request ID.
	RequestIDKey = "request_id"

	// RequestIDHeader carries the request ID on responses and, optionally,
	// a renderer-chosen ID on requests.
	RequestIDHeader = "X-Request-ID"
)

// RequestID tags every request with a fresh server-generated ID and echoes
// it in the X-Request-ID response header. A renderer-supplied X-Request-ID
// is never adopted as the canonical ID; it is recorded as client_request_id
// so the two can be correlated in the logs.
func RequestID(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)

		if clientID := c.GetHeader(RequestIDHeader); clientID != "" {
			c.Set("client_request_id", clientID)
			log.WithFields(logrus.Fields{
				RequestIDKey:        id,
				"client_request_id": clientID,
			}).Debug("renderer request id recorded")
		}

		c.Next()
	}
}
