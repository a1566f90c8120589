package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"rideshare/internal/config"
	internalRedis "rideshare/internal/redis"
)

// NewRedisClient creates the shared Redis client. When nrApp is set every
// command is reported as a datastore segment named after the key's
// collection.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, nrApp *newrelic.Application) (*redis.Client, error) {
	client := redis.NewClient(redisOptions(cfg))

	if nrApp != nil {
		client.AddHook(&nrRedisHook{host: hostOf(cfg.Addr)})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

func redisOptions(cfg config.RedisConfig) *redis.Options {
	opts := &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: hostOf(cfg.Addr),
		}
	}
	return opts
}

func hostOf(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// nrRedisHook implements redis.Hook for New Relic instrumentation.
type nrRedisHook struct {
	host string
}

func (h *nrRedisHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *nrRedisHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if txn := newrelic.FromContext(ctx); txn != nil {
			defer h.segment(txn, cmd.Name(), commandCollection(cmd)).End()
		}
		return next(ctx, cmd)
	}
}

func (h *nrRedisHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		if txn := newrelic.FromContext(ctx); txn != nil {
			collection := "other"
			if len(cmds) > 0 {
				collection = commandCollection(cmds[0])
			}
			defer h.segment(txn, "pipeline", collection).End()
		}
		return next(ctx, cmds)
	}
}

func (h *nrRedisHook) segment(txn *newrelic.Transaction, operation, collection string) *newrelic.DatastoreSegment {
	return &newrelic.DatastoreSegment{
		StartTime:  txn.StartSegmentNow(),
		Product:    newrelic.DatastoreRedis,
		Operation:  operation,
		Collection: collection,
		Host:       h.host,
	}
}

// commandCollection finds the key a command touches and maps it to a
// collection. EVAL and EVALSHA carry their first key after the script and
// key count.
func commandCollection(cmd redis.Cmder) string {
	args := cmd.Args()
	keyIndex := 1
	switch cmd.Name() {
	case "eval", "evalsha", "eval_ro", "evalsha_ro":
		keyIndex = 3
	}
	if len(args) <= keyIndex {
		return "other"
	}
	key, ok := args[keyIndex].(string)
	if !ok {
		return "other"
	}
	return internalRedis.Collection(key)
}
