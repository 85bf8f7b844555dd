package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SubmitGuard serializes product submissions per admin.
type SubmitGuard struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewSubmitGuard creates a SubmitGuard. A lock expires after ttl even if
// its holder never releases it.
func NewSubmitGuard(redis *RedisClient, ttl time.Duration) *SubmitGuard {
	return &SubmitGuard{redis: redis, ttl: ttl}
}

func (g *SubmitGuard) key(adminID int) string {
	return fmt.Sprintf("lock:product_submit:%d", adminID)
}

// Acquire takes the lock for adminID. ok is false when another submission
// is in flight. release must be called once the submission finishes.
func (g *SubmitGuard) Acquire(ctx context.Context, adminID int) (release func(), ok bool, err error) {
	token := uuid.NewString()
	key := g.key(adminID)

	ok, err = g.redis.SetNX(ctx, key, token, g.ttl)
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire submit lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release = func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, g.redis.client, []string{key}, token).Err(); err != nil {
			log.Warn().Err(err).Int("admin_id", adminID).Msg("Failed to release submit lock, it will expire on its own")
		}
	}
	return release, true, nil
}
