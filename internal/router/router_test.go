package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/health-assistant/config"
	"github.com/jwalitptl/health-assistant/internal/handler/health"
	"github.com/jwalitptl/health-assistant/internal/handler/prometheus"
	"github.com/jwalitptl/health-assistant/internal/middleware"
	"github.com/jwalitptl/health-assistant/pkg/auth"
	"github.com/jwalitptl/health-assistant/pkg/logger"
)

type routeFunc func(*gin.RouterGroup)

func (f routeFunc) RegisterRoutes(rg *gin.RouterGroup) { f(rg) }

func setup(t *testing.T, burst int) (*Router, *auth.JWTManager) {
	t.Helper()

	jwt := auth.NewJWTManager(config.JWTConfig{Secret: "s3cret", Issuer: "test", AccessTTL: time.Hour})
	validation := middleware.DefaultValidationConfig()
	require.NoError(t, middleware.RegisterValidators(validation))

	public := routeFunc(func(rg *gin.RouterGroup) {
		rg.GET("/document-types", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{}) })
	})
	protected := routeFunc(func(rg *gin.RouterGroup) {
		rg.GET("/whoami", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(middleware.ContextUserID)})
		})
		rg.GET("/panic", func(c *gin.Context) { panic("boom") })
	})

	r := NewRouter(
		logger.Nop(),
		middleware.NewAuthMiddleware(jwt),
		health.NewHandler(nil),
		prometheus.New("test"),
		[]Handler{public},
		[]Handler{protected},
		RouterConfig{
			Mode:             gin.TestMode,
			RateLimitEnabled: true,
			RateLimit:        0.0001,
			RateBurst:        burst,
			RequestTimeout:   time.Second,
			CORSConfig:       middleware.DefaultCORSConfig(),
			SizeLimit:        middleware.DefaultSizeLimitConfig(),
			Validation:       validation,
		},
	)
	r.Setup()
	return r, jwt
}

func serve(r *Router, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.Engine().ServeHTTP(w, req)
	return w
}

func bearer(t *testing.T, jwt *auth.JWTManager, path, userID string) *http.Request {
	t.Helper()
	token, _, err := jwt.GenerateAccessToken(userID)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestPublicRoutesSkipAuth(t *testing.T) {
	r, _ := setup(t, 10)

	for _, path := range []string{"/health/live", "/health/ready", "/metrics", "/api/v1/document-types"} {
		w := serve(r, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r, jwt := setup(t, 10)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, bearer(t, jwt, "/api/v1/whoami", "user-7"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"user-7"}`, w.Body.String())
}

func TestResponseHeaders(t *testing.T) {
	r, _ := setup(t, 10)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := serve(r, req)

	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestRateLimitPerUser(t *testing.T) {
	r, jwt := setup(t, 2)

	for i := 0; i < 2; i++ {
		w := serve(r, bearer(t, jwt, "/api/v1/whoami", "user-1"))
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := serve(r, bearer(t, jwt, "/api/v1/whoami", "user-1"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = serve(r, bearer(t, jwt, "/api/v1/whoami", "user-2"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPanicIsRecovered(t *testing.T) {
	r, jwt := setup(t, 10)

	w := serve(r, bearer(t, jwt, "/api/v1/panic", "user-1"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error")
}
