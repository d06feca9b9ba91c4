package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/health-assistant/pkg/errors"
	"github.com/jwalitptl/health-assistant/pkg/httputil"
	"github.com/jwalitptl/health-assistant/pkg/logger"
)

// ErrorHandler renders the last error a handler attached with c.Error.
// Client errors are logged at warn, everything else at error.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	zl := log.Zerolog()

	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		lastErr := c.Errors.Last().Err
		event := zl.Error()
		if appErr, ok := errors.As(lastErr); ok && appErr.HTTPStatus() < 500 {
			event = zl.Warn()
		}
		event.
			Err(lastErr).
			Str("request_id", c.GetString(ContextRequestID)).
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Msg("Request error")

		if c.Writer.Written() {
			return
		}
		httputil.RespondWithError(c, lastErr)
	}
}
