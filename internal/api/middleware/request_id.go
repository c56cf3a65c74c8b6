// Package middleware provides the HTTP middleware chain: request id
// propagation, bearer auth, the chaos simulator and centralized error
// rendering.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type contextKey string

const (
	// RequestIDHeader propagates the request identifier to clients.
	RequestIDHeader = "X-Request-Id"

	ctxKeyRequestID contextKey = "request_id"
)

// RequestID echoes the client's request id, or generates one, and sets it on
// the response header and request context. Responses are also marked
// no-store: simulated data must never be cached.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			id, err := uuid.NewV7()
			if err != nil {
				id = uuid.New()
			}
			rid = id.String()
		}
		c.Set(string(ctxKeyRequestID), rid)
		c.Writer.Header().Set(RequestIDHeader, rid)
		c.Writer.Header().Set("Cache-Control", "no-store")
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), ctxKeyRequestID, rid),
		)
		c.Next()
	}
}

// GetRequestID extracts the request id from a context.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return v
	}
	return ""
}
