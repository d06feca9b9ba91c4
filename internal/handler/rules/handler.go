package rules

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/health-assistant/internal/model"
	"github.com/jwalitptl/health-assistant/internal/service/rules"
	"github.com/jwalitptl/health-assistant/pkg/httputil"
)

type Evaluator interface {
	Evaluate(in rules.Input) []model.Finding
}

type Matcher interface {
	Match(raw string) model.IntentMatch
}

// Handler exposes the rule evaluator and intent matcher for ad-hoc input,
// which is how clients preview findings before a record is saved.
type Handler struct {
	evaluator Evaluator
	matcher   Matcher
}

func NewHandler(evaluator Evaluator, matcher Matcher) *Handler {
	return &Handler{evaluator: evaluator, matcher: matcher}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/rules/evaluate", h.Evaluate)
	r.POST("/intents/match", h.MatchIntent)
}

// DocInfo is decoded leniently, the same way stored records are: anything
// that is not an object evaluates as an empty field map.
type evaluateRequest struct {
	DocType string          `json:"doc_type" binding:"required,max=100"`
	DocInfo json.RawMessage `json:"docinfo"`
}

// Empty text is a valid input and matches as unknown.
type matchRequest struct {
	Text string `json:"text" binding:"max=2000"`
}

func (h *Handler) Evaluate(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(httputil.BindError(err))
		return
	}

	findings := h.evaluator.Evaluate(rules.Input{
		DocType: req.DocType,
		DocInfo: model.ParseDocInfo(req.DocInfo),
		UserID:  c.GetString("user_id"),
	})
	if findings == nil {
		findings = []model.Finding{}
	}
	httputil.RespondWithSuccess(c, findings)
}

func (h *Handler) MatchIntent(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(httputil.BindError(err))
		return
	}
	httputil.RespondWithSuccess(c, h.matcher.Match(req.Text))
}
