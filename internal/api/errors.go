package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nodelearn/nodelearn/internal/httputil"
	"github.com/nodelearn/nodelearn/internal/metrics"
	"github.com/nodelearn/nodelearn/internal/models"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationError  = "validation_error"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeProviderError    = "provider_error"
	ErrCodeStoreUnavailable = "store_unavailable"
	ErrCodeInternalError    = "internal_error"
	ErrCodeRateLimited      = "rate_limited"
)

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// respondServiceError maps service-layer sentinel errors to HTTP responses.
// Unrecognized errors are logged and returned as opaque 500s.
func respondServiceError(c *gin.Context, log *logrus.Logger, err error, action string) {
	switch {
	case errors.Is(err, models.ErrInvalidTopic),
		errors.Is(err, models.ErrInvalidTimestamp),
		errors.Is(err, models.ErrUnsupportedDocument),
		errors.Is(err, models.ErrRootRemoval):
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
	case errors.Is(err, models.ErrSessionNotFound),
		errors.Is(err, models.ErrNodeNotFound),
		errors.Is(err, models.ErrParentNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, models.ErrTreeInitialized),
		errors.Is(err, models.ErrSessionEnded),
		errors.Is(err, models.ErrExpansionInProgress),
		errors.Is(err, models.ErrCycle):
		respondError(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, models.ErrSuggestionProvider):
		respondError(c, http.StatusBadGateway, ErrCodeProviderError, "suggestion provider unavailable")
	case errors.Is(err, models.ErrStoreUnavailable):
		respondError(c, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, "session store unavailable")
	default:
		log.WithError(err).Error(action)
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}
