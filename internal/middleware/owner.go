package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// OwnerKey is the gin context key for the resolved owner reference.
	OwnerKey = "owner_ref"

	// OwnerHeader is the HTTP header carrying the caller's owner identity.
	OwnerHeader = "X-Owner-ID"

	maxOwnerLen = 128
)

// Owner resolves the caller's owner reference from the X-Owner-ID header.
// Requests without the header fall back to the "default" owner so that
// single-user deployments work with no client configuration.
func Owner() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := strings.TrimSpace(c.GetHeader(OwnerHeader))
		if owner == "" {
			owner = "default"
		}

		if len(owner) > maxOwnerLen {
			respondError(c, http.StatusBadRequest, "invalid_owner", "owner ID too long")

			return
		}

		c.Set(OwnerKey, owner)
		c.Next()
	}
}

// OwnerFrom returns the owner reference resolved by the Owner middleware.
func OwnerFrom(c *gin.Context) string {
	if v, ok := c.Get(OwnerKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}

	return "default"
}
