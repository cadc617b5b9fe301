package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/vendalocal/whatsapp-assistant/internal/audit"
	"github.com/vendalocal/whatsapp-assistant/internal/util"
)

const (
	rateLimitKeyPrefix = "ratelimit:"
	rateLimitWindow    = 60 * time.Second
)

var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

local windowStart = now - window

redis.call('ZREMRANGEBYSCORE', key, '-inf', windowStart)

local count = redis.call('ZCARD', key)

if count >= limit then
    return 0
end

redis.call('ZADD', key, now, now .. '-' .. math.random())
redis.call('EXPIRE', key, window + 10)

return 1
`)

// RedisRateLimiter applies a sliding-window limit per key. The webhook
// handler keys it by sender phone so one chatty user cannot starve the
// rest; a Redis failure fails open.
type RedisRateLimiter struct {
	client *redis.Client
	limit  int
}

func NewRedisRateLimiter(client *redis.Client, limit int) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, limit: limit}
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) bool {
	now := time.Now().Unix()

	result, err := rateLimitScript.Run(ctx, rl.client,
		[]string{rateLimitKeyPrefix + key},
		now, int64(rateLimitWindow.Seconds()), rl.limit,
	).Int64()
	if err != nil {
		log.Warn().Err(err).Msg("redis rate limit check failed, allowing request")
		return true
	}

	allowed := result == 1
	if !allowed {
		audit.Log(ctx, audit.Event{
			Type:  audit.EventRateLimitExceed,
			Phone: key,
			Details: map[string]interface{}{
				"limit": rl.limit,
			},
		})
	}
	return allowed
}

// AllowPhone is Allow with log-safe masking baked into the audit trail.
func (rl *RedisRateLimiter) AllowPhone(ctx context.Context, phone string) bool {
	allowed := rl.Allow(ctx, phone)
	if !allowed {
		log.Warn().Str("phone", util.MaskPhone(phone)).Msg("sender rate limit exceeded")
	}
	return allowed
}

// Handler rejects requests once the per-IP budget is exhausted. Used in
// front of the webhook route as a coarse backstop.
func (rl *RedisRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(r.Context(), "ip:"+r.RemoteAddr) {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
