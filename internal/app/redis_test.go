package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rideshare/internal/config"
)

func TestRedisOptions_FromConfig(t *testing.T) {
	opts := redisOptions(config.RedisConfig{
		Addr:         "cache.internal:6380",
		DB:           2,
		PoolSize:     40,
		DialTimeout:  time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 3 * time.Second,
		TLS:          true,
	})

	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 40, opts.PoolSize)
	assert.Equal(t, time.Second, opts.DialTimeout)
	assert.Equal(t, 2*time.Second, opts.ReadTimeout)
	assert.Equal(t, 3*time.Second, opts.WriteTimeout)
	require.NotNil(t, opts.TLSConfig)
	assert.Equal(t, "cache.internal", opts.TLSConfig.ServerName)

	assert.Nil(t, redisOptions(config.RedisConfig{Addr: "localhost:6379"}).TLSConfig)
}

func TestCommandCollection(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		cmd  redis.Cmder
		want string
	}{
		{"room cache get", redis.NewStringCmd(ctx, "get", "cache:room:r1"), "room_cache"},
		{"route cache set", redis.NewStatusCmd(ctx, "set", "cache:route:r1", "{}"), "route_cache"},
		{"geo index", redis.NewIntCmd(ctx, "geoadd", "rooms:start_locations", 72.8, 19.0, "r1"), "room_locations"},
		{"event channel", redis.NewIntCmd(ctx, "publish", "rooms:events", "{}"), "room_events"},
		{"lock release script", redis.NewCmd(ctx, "evalsha", "abc123", 1, "lock:room-reaper", "token"), "locks"},
		{"idempotency", redis.NewStringCmd(ctx, "get", "idempotency:u1:POST:/v1/rooms:k"), "idempotency"},
		{"no key", redis.NewStatusCmd(ctx, "ping"), "other"},
		{"unknown key", redis.NewStringCmd(ctx, "get", "session:1"), "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, commandCollection(tt.cmd))
		})
	}
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), config.RedisConfig{Addr: mr.Addr(), PoolSize: 2}, nil)
	require.NoError(t, err)
	defer client.Close()
	assert.NoError(t, client.Set(context.Background(), "cache:room:r1", "x", 0).Err())

	mr.Close()
	_, err = NewRedisClient(context.Background(), config.RedisConfig{Addr: mr.Addr(), DialTimeout: 100 * time.Millisecond}, nil)
	assert.Error(t, err)
}
