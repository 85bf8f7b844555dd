package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// SessionCache keeps each admin's marketplace bearer token.
type SessionCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewSessionCache creates a SessionCache. Tokens expire after ttl.
func NewSessionCache(redis *RedisClient, ttl time.Duration) *SessionCache {
	return &SessionCache{redis: redis, ttl: ttl}
}

func (c *SessionCache) key(adminID int) string {
	return fmt.Sprintf("session:marketplace_token:%d", adminID)
}

// SetToken stores the token for adminID.
func (c *SessionCache) SetToken(ctx context.Context, adminID int, token string) error {
	if err := c.redis.Set(ctx, c.key(adminID), token, c.ttl); err != nil {
		return fmt.Errorf("failed to store marketplace token: %w", err)
	}
	return nil
}

// Token returns the stored token, or "" when none is stored.
func (c *SessionCache) Token(ctx context.Context, adminID int) (string, error) {
	token, err := c.redis.Get(ctx, c.key(adminID))
	if errors.Is(err, ErrMiss) {
		return "", nil
	}
	return token, err
}

// ClearToken removes the stored token.
func (c *SessionCache) ClearToken(ctx context.Context, adminID int) error {
	return c.redis.Delete(ctx, c.key(adminID))
}
