package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/health-assistant/internal/middleware"
	"github.com/jwalitptl/health-assistant/pkg/errors"
)

// CurrentUser returns the authenticated user id. When it is missing the
// request is failed with 401 and ok is false.
func CurrentUser(c *gin.Context) (string, bool) {
	userID := c.GetString(middleware.ContextUserID)
	if userID == "" {
		_ = c.Error(errors.Unauthorized(nil))
		return "", false
	}
	return userID, true
}
