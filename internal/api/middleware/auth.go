package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "krida.io/dealdesk/internal/pkg/errors"
)

// BearerAuth requires an Authorization header of the form "Bearer <token>"
// matching the configured API token.
func BearerAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		presented, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(presented) != token {
			c.Header("WWW-Authenticate", "Bearer")
			c.Error(apperrors.Unauthorized("Missing or invalid bearer token"))
			c.Abort()
			return
		}
		c.Next()
	}
}
