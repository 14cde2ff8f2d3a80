package handlers

import (
	"errors"
	"net/http"

	"storefront-svc/services"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// respondError maps service errors onto the JSON error body used by every
// endpoint. Unexpected errors are logged and hidden from the client.
func respondError(c *gin.Context, span trace.Span, logger *zap.Logger, msg string, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, services.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
