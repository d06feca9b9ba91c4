package rules

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/health-assistant/config"
	"github.com/jwalitptl/health-assistant/internal/middleware"
	"github.com/jwalitptl/health-assistant/internal/model"
	"github.com/jwalitptl/health-assistant/internal/service/intent"
	"github.com/jwalitptl/health-assistant/internal/service/rules"
	"github.com/jwalitptl/health-assistant/pkg/httputil"
	"github.com/jwalitptl/health-assistant/pkg/logger"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, middleware.RegisterValidators(middleware.DefaultValidationConfig()))

	ref, err := config.DefaultReference()
	require.NoError(t, err)
	matcher, err := intent.NewMatcher(ref)
	require.NoError(t, err)

	r := gin.New()
	r.Use(
		middleware.ErrorHandler(logger.Nop()),
		middleware.Validation(middleware.DefaultValidationConfig()),
	)
	NewHandler(rules.NewEvaluator(logger.Nop(), nil), matcher).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func post(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestEvaluate(t *testing.T) {
	w := post(setupRouter(t), "/api/v1/rules/evaluate",
		`{"doc_type":"Blood Test","docinfo":{"Hemoglobin":"10"}}`)

	require.Equal(t, http.StatusOK, w.Code)
	var findings []model.Finding
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &httputil.Response{Data: &findings}))
	require.Len(t, findings, 1)
	assert.Equal(t, rules.RuleHbLow, findings[0].Rule)
	assert.Equal(t, model.SeverityUrgent, findings[0].Severity)
}

func TestEvaluateWithoutFlags(t *testing.T) {
	w := post(setupRouter(t), "/api/v1/rules/evaluate", `{"doc_type":"MRI","docinfo":{}}`)

	require.Equal(t, http.StatusOK, w.Code)
	var findings []model.Finding
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &httputil.Response{Data: &findings}))
	require.Len(t, findings, 1)
	assert.Equal(t, rules.RuleNoFlags, findings[0].Rule)
}

func TestEvaluateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing doc type", body: `{"docinfo":{"Hemoglobin":10}}`},
		{name: "malformed body", body: `{"doc_type":"Blood Test","docinfo":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(setupRouter(t), "/api/v1/rules/evaluate", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestEvaluateNonObjectDocInfo(t *testing.T) {
	tests := []struct {
		name    string
		docinfo string
		rule    string
	}{
		{name: "array", docinfo: `[1,2]`, rule: rules.RuleNoFlags},
		{name: "string", docinfo: `"oops"`, rule: rules.RuleNoFlags},
		{name: "number", docinfo: `42`, rule: rules.RuleNoFlags},
		{name: "null", docinfo: `null`, rule: rules.RuleNoFlags},
		{name: "encoded object", docinfo: `"{\"Hemoglobin\":\"10\"}"`, rule: rules.RuleHbLow},
	}

	r := setupRouter(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(r, "/api/v1/rules/evaluate", `{"doc_type":"Blood Test","docinfo":`+tt.docinfo+`}`)

			require.Equal(t, http.StatusOK, w.Code)
			var findings []model.Finding
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &httputil.Response{Data: &findings}))
			require.Len(t, findings, 1)
			assert.Equal(t, tt.rule, findings[0].Rule)
		})
	}
}

func TestMatchIntent(t *testing.T) {
	tests := []struct {
		text   string
		intent model.Intent
		entity string
	}{
		{text: "show my blood test", intent: model.IntentShowRecentTests, entity: "Blood Test"},
		{text: "recommend something for my blood test", intent: model.IntentShowRecommendations, entity: "Blood Test"},
		{text: "hello", intent: model.IntentGreeting},
		{text: "qwerty", intent: model.IntentUnknown},
		{text: "", intent: model.IntentUnknown},
		{text: "   ", intent: model.IntentUnknown},
	}

	r := setupRouter(t)
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			body, _ := json.Marshal(map[string]string{"text": tt.text})
			w := post(r, "/api/v1/intents/match", string(body))

			require.Equal(t, http.StatusOK, w.Code)
			var got model.IntentMatch
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &httputil.Response{Data: &got}))
			assert.Equal(t, tt.intent, got.Intent)
			assert.Equal(t, tt.entity, got.Entity)
		})
	}
}
