package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rideshare/internal/auth"
	"rideshare/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(tokens *auth.JWTManager) *gin.Engine {
	r := gin.New()
	r.GET("/me", RequireAuth(tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c), "email": UserEmail(c)})
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	tokens := auth.NewJWTManager("secret", time.Hour, time.Hour)
	user := &domain.User{ID: "user-1", Email: "riya@ves.ac.in"}
	session, err := tokens.GenerateSession(user)
	require.NoError(t, err)
	verify, err := tokens.GenerateVerification(user)
	require.NoError(t, err)

	tests := []struct {
		name       string
		target     string
		header     map[string]string
		wantStatus int
	}{
		{"bearer header", "/me", map[string]string{"Authorization": "Bearer " + session}, http.StatusOK},
		{"lowercase scheme", "/me", map[string]string{"Authorization": "bearer " + session}, http.StatusOK},
		{"missing token", "/me", nil, http.StatusUnauthorized},
		{"verification token", "/me", map[string]string{"Authorization": "Bearer " + verify}, http.StatusUnauthorized},
		{"query token on plain request", "/me?token=" + session, nil, http.StatusUnauthorized},
		{"query token on websocket upgrade", "/me?token=" + session, map[string]string{"Upgrade": "websocket"}, http.StatusOK},
	}

	r := newAuthRouter(tokens)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"user_id":"user-1"`)
			}
		})
	}
}

func TestRateLimit_RejectsAfterBurst(t *testing.T) {
	r := gin.New()
	r.GET("/ping", RateLimit(NewIPRateLimiter(0.001, 2)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "limits are per IP")
}

func TestIPRateLimiter_ReusesLimiter(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	assert.Same(t, l.GetLimiter("1.2.3.4"), l.GetLimiter("1.2.3.4"))
	assert.NotSame(t, l.GetLimiter("1.2.3.4"), l.GetLimiter("5.6.7.8"))
}

func TestIPRateLimiter_DropsIdleBuckets(t *testing.T) {
	l := newIPRateLimiter(1, 1, 20*time.Millisecond, time.Hour)

	first := l.GetLimiter("1.2.3.4")
	require.False(t, first.Allow() && first.Allow(), "burst of one")
	l.GetLimiter("5.6.7.8")
	assert.Equal(t, 2, l.Len())

	time.Sleep(40 * time.Millisecond)
	l.ips.DeleteExpired()
	assert.Equal(t, 0, l.Len())

	again := l.GetLimiter("1.2.3.4")
	assert.NotSame(t, first, again)
	assert.True(t, again.Allow(), "a returning IP starts with a full bucket")
}

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware("https://rides.example.com"))
	r.POST("/v1/rooms", func(c *gin.Context) { c.Status(http.StatusCreated) })

	req := httptest.NewRequest(http.MethodOptions, "/v1/rooms", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://rides.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")
}

func TestIdempotency_BypassesWithoutRedis(t *testing.T) {
	r := gin.New()
	r.Use(IdempotencyMiddleware(nil))
	r.GET("/rooms", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/rooms", func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rooms", nil))
	assert.Equal(t, http.StatusOK, w.Code, "reads skip idempotency")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/rooms", nil))
	assert.Equal(t, http.StatusCreated, w.Code, "requests without a key skip idempotency")

	req := httptest.NewRequest(http.MethodPost, "/rooms", nil)
	req.Header.Set("Idempotency-Key", strings.Repeat("k", 129))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
