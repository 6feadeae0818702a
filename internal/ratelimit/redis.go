package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis shares one fixed window per key between every instance that talks to
// the same redis. The window opens on the first hit of a key and is closed by
// the key's expiry, so redis does the sweeping.
type Redis struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

var _ Limiter = (*Redis)(nil)

// INCR and the first-hit PEXPIRE run as one script so a key can never be left
// without an expiry.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

func NewRedis(client *redis.Client, prefix string, limit int, window time.Duration) *Redis {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &Redis{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

func (r *Redis) key(key string) string {
	return r.prefix + ":" + key
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	count, err := fixedWindowScript.Run(ctx, r.client, []string{r.key(key)}, r.window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return count <= int64(r.limit), nil
}
