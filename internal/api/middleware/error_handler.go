package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "krida.io/dealdesk/internal/pkg/errors"
	"krida.io/dealdesk/internal/pkg/logger"
	"krida.io/dealdesk/internal/pkg/metrics"
)

// errorEnvelope is the wire shape of every error response.
type errorEnvelope struct {
	Error *apperrors.AppError `json:"error"`
}

// ErrorHandler renders errors recorded via c.Error() as the JSON error
// envelope and counts them. Handlers never write error bodies themselves.
func ErrorHandler(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		m.IncrErrors()
		err := c.Errors.Last().Err

		// A streaming handler may fail after bytes went out; the envelope
		// can no longer be delivered.
		if c.Writer.Written() {
			logger.Warn("Error after response started", zap.Error(err))
			return
		}

		if appErr, ok := apperrors.IsAppError(err); ok {
			logger.Warn("Request error",
				zap.String("code", appErr.Code),
				zap.String("message", appErr.Message),
				zap.Int("status", appErr.HTTPStatus),
				zap.Error(appErr.Err),
			)
			c.JSON(appErr.HTTPStatus, errorEnvelope{Error: appErr})
			return
		}

		logger.Error("Unhandled request error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorEnvelope{
			Error: apperrors.Internal("Internal server error"),
		})
	}
}
