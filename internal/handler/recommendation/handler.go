package recommendation

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/health-assistant/internal/handler"
	"github.com/jwalitptl/health-assistant/internal/model"
	"github.com/jwalitptl/health-assistant/pkg/httputil"
)

type Recommender interface {
	Recommend(ctx context.Context, userID, docType string, limit int) ([]model.Finding, error)
}

type Handler struct {
	service Recommender
}

func NewHandler(service Recommender) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/recommendations", h.ListRecommendations)
}

type listRequest struct {
	DocType string `form:"doc_type" binding:"omitempty,doctype"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

type listResponse struct {
	DocType string                     `json:"doc_type,omitempty"`
	Items   []model.RecommendationItem `json:"items"`
}

func (h *Handler) ListRecommendations(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}

	var req listRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		_ = c.Error(httputil.BindError(err))
		return
	}

	findings, err := h.service.Recommend(c.Request.Context(), userID, req.DocType, req.Limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	items := make([]model.RecommendationItem, len(findings))
	for i, f := range findings {
		items[i] = model.RecommendationItem{Finding: f, Kind: model.RecommendationKind}
	}
	httputil.RespondWithSuccess(c, listResponse{DocType: req.DocType, Items: items})
}
