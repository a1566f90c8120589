package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalRedis "rideshare/internal/redis"
)

func newIdempotentRouter(t *testing.T, status int) (*gin.Engine, *miniredis.Miniredis, *int32) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	var calls int32
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(userIDKey, c.GetHeader("X-User"))
	})
	r.Use(IdempotencyMiddleware(client))
	r.POST("/rooms", func(c *gin.Context) {
		n := atomic.AddInt32(&calls, 1)
		c.JSON(status, gin.H{"call": n})
	})
	return r, mr, &calls
}

func postRoom(r *gin.Engine, user, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/rooms", nil)
	req.Header.Set("X-User", user)
	req.Header.Set(idempotencyHeader, key)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	r, mr, calls := newIdempotentRouter(t, http.StatusCreated)

	first := postRoom(r, "user-1", "k1")
	require.Equal(t, http.StatusCreated, first.Code)

	second := postRoom(r, "user-1", "k1")
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))

	key := internalRedis.IdempotencyKey("user-1", http.MethodPost, "/rooms", "k1")
	assert.True(t, mr.Exists(key))
	assert.Equal(t, idempotencyTTL, mr.TTL(key))
	assert.False(t, mr.Exists(key+":lock"), "lock is released after the handler")
}

func TestIdempotency_KeysAreScopedToCaller(t *testing.T) {
	r, _, calls := newIdempotentRouter(t, http.StatusCreated)

	postRoom(r, "user-1", "k1")
	w := postRoom(r, "user-2", "k1")

	assert.Empty(t, w.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestIdempotency_ServerErrorsAreNotStored(t *testing.T) {
	r, _, calls := newIdempotentRouter(t, http.StatusInternalServerError)

	postRoom(r, "user-1", "k1")
	w := postRoom(r, "user-1", "k1")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls), "a failed request may be retried")
}

func TestIdempotency_InProgressKeyConflicts(t *testing.T) {
	r, mr, calls := newIdempotentRouter(t, http.StatusCreated)

	key := internalRedis.IdempotencyKey("user-1", http.MethodPost, "/rooms", "k1")
	require.NoError(t, mr.Set(key+":lock", "1"))

	w := postRoom(r, "user-1", "k1")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Zero(t, atomic.LoadInt32(calls))
}

func TestIdempotency_RedisDownProceeds(t *testing.T) {
	r, mr, calls := newIdempotentRouter(t, http.StatusCreated)
	mr.Close()

	w := postRoom(r, "user-1", "k1")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}
