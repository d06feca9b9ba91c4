package assistant

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/health-assistant/internal/handler"
	"github.com/jwalitptl/health-assistant/internal/model"
	"github.com/jwalitptl/health-assistant/pkg/httputil"
)

// Service is the conversation session API the handler drives.
type Service interface {
	StartConversation(ctx context.Context, userID string) (*model.Conversation, error)
	GetConversation(ctx context.Context, userID, id string) (*model.Conversation, error)
	SendMessage(ctx context.Context, userID, id, text string) ([]model.BotMessage, error)
	SelectSuggestion(ctx context.Context, userID, id, label string, meta map[string]any) ([]model.BotMessage, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	conversations := r.Group("/assistant/conversations")
	{
		conversations.POST("", h.StartConversation)
		conversations.GET("/:id", h.GetConversation)
		conversations.POST("/:id/messages", h.SendMessage)
		conversations.POST("/:id/suggestions", h.SelectSuggestion)
	}
}

// Text may be empty; the orchestrator answers it like any unmatched input.
type sendMessageRequest struct {
	Text string `json:"text" binding:"max=2000"`
}

type selectSuggestionRequest struct {
	Label string         `json:"label" binding:"required,max=200"`
	Meta  map[string]any `json:"meta"`
}

type turnResponse struct {
	ConversationID string             `json:"conversation_id"`
	Messages       []model.BotMessage `json:"messages"`
}

func (h *Handler) StartConversation(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}

	conv, err := h.service.StartConversation(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithCreated(c, conv)
}

func (h *Handler) GetConversation(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}

	conv, err := h.service.GetConversation(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, conv)
}

func (h *Handler) SendMessage(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(httputil.BindError(err))
		return
	}

	id := c.Param("id")
	msgs, err := h.service.SendMessage(c.Request.Context(), userID, id, req.Text)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, turnResponse{ConversationID: id, Messages: msgs})
}

func (h *Handler) SelectSuggestion(c *gin.Context) {
	userID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}

	var req selectSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(httputil.BindError(err))
		return
	}

	id := c.Param("id")
	msgs, err := h.service.SelectSuggestion(c.Request.Context(), userID, id, req.Label, req.Meta)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, turnResponse{ConversationID: id, Messages: msgs})
}
