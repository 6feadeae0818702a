// Package ratelimit implements a fixed-window request counter keyed by an
// arbitrary string, usually the client address.
//
// A fixed window lets up to twice the limit through around a window boundary.
// That is accepted for the endpoints it guards.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"stellarreg/api/internal/config"
)

const (
	DefaultLimit  = 10
	DefaultWindow = time.Minute
)

type Limiter interface {
	// Allow records one request for key and reports whether it may proceed.
	Allow(ctx context.Context, key string) (bool, error)
}

// Sweeper is implemented by limiters that keep per-key state in process.
type Sweeper interface {
	Sweep() int
}

// New builds the limiter selected by cfg.Backend. redisClient is only used by
// the redis backend.
func New(cfg config.RateLimitConfig, redisClient *redis.Client) (Limiter, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemory(cfg.Limit, cfg.Window), nil
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("redis rate limiter needs a redis client")
		}
		return NewRedis(redisClient, cfg.RedisPrefix, cfg.Limit, cfg.Window), nil
	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", cfg.Backend)
	}
}
