package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(deps map[string]Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(deps).RegisterRoutes(r)
	return r
}

func up(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("connection refused") }

func TestLivenessCheck(t *testing.T) {
	r := setupRouter(map[string]Pinger{"database": PingerFunc(down)})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadinessCheck(t *testing.T) {
	tests := []struct {
		name   string
		deps   map[string]Pinger
		status int
		checks map[string]string
	}{
		{
			name:   "all up",
			deps:   map[string]Pinger{"database": PingerFunc(up), "redis": PingerFunc(up)},
			status: http.StatusOK,
			checks: map[string]string{"database": "UP", "redis": "UP"},
		},
		{
			name:   "redis down",
			deps:   map[string]Pinger{"database": PingerFunc(up), "redis": PingerFunc(down)},
			status: http.StatusServiceUnavailable,
			checks: map[string]string{"database": "UP", "redis": "DOWN"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupRouter(tt.deps)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			assert.Equal(t, tt.status, w.Code)
			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.checks, body.Checks)
		})
	}
}
