package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/setaside/internal/setaside"
	"github.com/iwvelando/setaside/pkg/constants"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig describes how to reach the outcome cache.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration
	Prefix   string
}

// Redis stores outcomes as JSON under Prefix+requestID.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewRedis connects to redis and verifies the connection with a ping.
func NewRedis(ctx context.Context, logger *zap.Logger, cfg RedisConfig) (*Redis, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Address, err)
	}

	return NewRedisWithClient(logger, client, cfg.TTL, cfg.Prefix), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(logger *zap.Logger, client *redis.Client, ttl time.Duration, prefix string) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefix == "" {
		prefix = constants.DefaultCachePrefix
	}
	return &Redis{client: client, ttl: ttl, prefix: prefix, logger: logger}
}

func (r *Redis) key(requestID string) string {
	return r.prefix + requestID
}

// Get treats any redis or decode failure as a miss.
func (r *Redis) Get(ctx context.Context, requestID string) (setaside.Outcome, bool) {
	raw, err := r.client.Get(ctx, r.key(requestID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("redis get failed",
				zap.String("op", "cache.Redis.Get"),
				zap.String("requestId", requestID),
				zap.Error(err),
			)
		}
		return setaside.Outcome{}, false
	}

	var out setaside.Outcome
	if err := json.Unmarshal(raw, &out); err != nil {
		r.logger.Warn("discarding undecodable cache entry",
			zap.String("op", "cache.Redis.Get"),
			zap.String("requestId", requestID),
			zap.Error(err),
		)
		return setaside.Outcome{}, false
	}
	return out, true
}

func (r *Redis) Set(ctx context.Context, out setaside.Outcome) error {
	raw, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	if err := r.client.Set(ctx, r.key(out.RequestID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, requestID string) error {
	if err := r.client.Del(ctx, r.key(requestID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
