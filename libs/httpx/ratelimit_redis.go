package httpx

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter counts requests per client in a fixed window stored in Redis,
// so every replica pointing at the same Redis and prefix shares one budget.
type RedisRateLimiter struct {
	rdb    redis.Scripter
	limit  int64
	window time.Duration
	prefix string
}

// incrWindow returns the request count and the remaining window in milliseconds.
var incrWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

func NewRedisRateLimiter(rdb redis.Scripter, limit int, window time.Duration, prefix string) *RedisRateLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window < time.Millisecond {
		window = time.Minute
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisRateLimiter{rdb: rdb, limit: int64(limit), window: window, prefix: prefix}
}

// Middleware rejects clients over budget with 429. When Redis cannot be reached
// the request passes if failOpen is set and gets 503 otherwise.
func (rl *RedisRateLimiter) Middleware(logger *slog.Logger, failOpen bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			count, ttl, err := rl.Hit(r.Context(), clientKey(r))
			if err != nil {
				logger.Warn("redis rate limiter error", "err", err, "fail_open", failOpen)
				if failOpen {
					next.ServeHTTP(w, r)
					return
				}
				WriteError(w, http.StatusServiceUnavailable, "rate limiter unavailable")
				return
			}
			remaining := rl.limit - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(rl.limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if count > rl.limit {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(ttl)))
				WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Hit counts one request for key and returns the running total and the time
// left in the current window.
func (rl *RedisRateLimiter) Hit(ctx context.Context, key string) (int64, time.Duration, error) {
	vals, err := incrWindow.Run(ctx, rl.rdb, []string{rl.prefix + ":" + key}, rl.window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(vals) != 2 {
		return 0, 0, fmt.Errorf("rate limit script returned %d values", len(vals))
	}
	ttl := time.Duration(vals[1]) * time.Millisecond
	if ttl < 0 {
		ttl = rl.window
	}
	return vals[0], ttl, nil
}

func retryAfterSeconds(ttl time.Duration) int {
	s := int((ttl + time.Second - 1) / time.Second)
	if s < 1 {
		return 1
	}
	return s
}
