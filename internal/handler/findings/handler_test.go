package findings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/health-assistant/internal/middleware"
	"github.com/jwalitptl/health-assistant/internal/model"
	"github.com/jwalitptl/health-assistant/pkg/logger"
)

type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) ListByUser(ctx context.Context, userID string, limit int) ([]*model.FindingEvent, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.FindingEvent), args.Error(1)
}

func setupRouter(history History, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	_ = middleware.RegisterValidators(middleware.DefaultValidationConfig())

	r := gin.New()
	r.Use(
		middleware.ErrorHandler(logger.Nop()),
		middleware.Validation(middleware.DefaultValidationConfig()),
	)
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set(middleware.ContextUserID, userID)
		}
		c.Next()
	})
	NewHandler(history).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestListFindings(t *testing.T) {
	history := new(MockHistory)
	events := []*model.FindingEvent{{
		ID:         "e1",
		UserID:     "user-1",
		RecordID:   "r1",
		DocType:    "Blood Test",
		Rule:       "glucose-very-high",
		Severity:   model.SeverityUrgent,
		Text:       "Glucose is very high",
		OccurredAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}}
	history.On("ListByUser", mock.Anything, "user-1", 5).Return(events, nil)

	w := get(setupRouter(history, "user-1"), "/api/v1/findings?limit=5")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Items []model.FindingEvent `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data.Items, 1)
	assert.Equal(t, "glucose-very-high", body.Data.Items[0].Rule)
	history.AssertExpectations(t)
}

func TestListFindings_DefaultLimitAndEmpty(t *testing.T) {
	history := new(MockHistory)
	history.On("ListByUser", mock.Anything, "user-1", defaultLimit).Return(nil, nil)

	w := get(setupRouter(history, "user-1"), "/api/v1/findings")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"items":[]`)
}

func TestListFindings_Errors(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		w := get(setupRouter(new(MockHistory), ""), "/api/v1/findings")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("limit out of range", func(t *testing.T) {
		w := get(setupRouter(new(MockHistory), "user-1"), "/api/v1/findings?limit=500")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"field":"limit"`)
	})

	t.Run("limit out of range without validation middleware", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		r := gin.New()
		r.Use(middleware.ErrorHandler(logger.Nop()))
		r.Use(func(c *gin.Context) {
			c.Set(middleware.ContextUserID, "user-1")
			c.Next()
		})
		NewHandler(new(MockHistory)).RegisterRoutes(r.Group("/api/v1"))

		w := get(r, "/api/v1/findings?limit=500")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("repository failure", func(t *testing.T) {
		history := new(MockHistory)
		history.On("ListByUser", mock.Anything, "user-1", defaultLimit).Return(nil, errors.New("db down"))

		w := get(setupRouter(history, "user-1"), "/api/v1/findings")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
