package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hongquyngo/authority-management-system/internal/infra/logger"
)

const (
	requestIDHeader = "X-Request-ID"
	// Inbound identifiers longer than this are replaced, not truncated.
	maxRequestIDLength = 64
)

// RequestID propagates the caller's X-Request-ID or mints a fresh UUID, and
// exposes the identifier to handlers and the logging layer.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}

		c.Writer.Header().Set(requestIDHeader, id)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), logger.RequestIDKey{}, id),
		)

		c.Next()
	}
}
