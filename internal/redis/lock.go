package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const lockKeyPrefix = "session-lock:"

// releaseScript deletes the lock only if it is still held by the caller.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)

// Lock is a per-key mutex backed by SET NX PX. Chat platforms redeliver
// inbound messages, and two near-simultaneous deliveries for the same phone
// must not interleave their session read-modify-write cycles.
type Lock struct {
	client  *redis.Client
	ttl     time.Duration
	retries int
	backoff time.Duration
}

func NewLock(client *redis.Client, ttl time.Duration, retries int, backoff time.Duration) *Lock {
	return &Lock{client: client, ttl: ttl, retries: retries, backoff: backoff}
}

// Acquire takes the lock for key, retrying a few times before giving up.
// The returned release function is safe to call once; it only deletes the
// lock if this caller still holds it.
func (l *Lock) Acquire(ctx context.Context, key string) (release func(), acquired bool) {
	token := uuid.NewString()
	fullKey := lockKeyPrefix + key

	for attempt := 0; attempt <= l.retries; attempt++ {
		ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("lock acquire failed, proceeding without lock")
			return func() {}, false
		}
		if ok {
			return func() {
				if err := releaseScript.Run(context.Background(), l.client, []string{fullKey}, token).Err(); err != nil && err != redis.Nil {
					log.Warn().Err(err).Str("key", key).Msg("lock release failed")
				}
			}, true
		}
		select {
		case <-ctx.Done():
			return func() {}, false
		case <-time.After(l.backoff):
		}
	}

	log.Warn().Str("key", key).Msg("lock contended past retry budget, proceeding without lock")
	return func() {}, false
}
