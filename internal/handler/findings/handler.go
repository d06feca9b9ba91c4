package findings

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/health-assistant/internal/handler"
	"github.com/jwalitptl/health-assistant/internal/model"
	"github.com/jwalitptl/health-assistant/pkg/httputil"
)

const defaultLimit = 20

// History lists the urgent findings previously surfaced to a user.
type History interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.FindingEvent, error)
}

type Handler struct {
	history History
}

func NewHandler(history History) *Handler {
	return &Handler{history: history}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/findings", h.ListFindings)
}

type listRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (h *Handler) ListFindings(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}

	var req listRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		_ = c.Error(httputil.BindError(err))
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultLimit
	}

	events, err := h.history.ListByUser(c.Request.Context(), userID, req.Limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if events == nil {
		events = []*model.FindingEvent{}
	}
	httputil.RespondWithSuccess(c, gin.H{"items": events})
}
