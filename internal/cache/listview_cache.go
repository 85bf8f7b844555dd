package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/GTDGit/market_admin/internal/listing"
)

// ListViewCache persists each admin's product list state.
type ListViewCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewListViewCache creates a ListViewCache.
func NewListViewCache(redis *RedisClient, ttl time.Duration) *ListViewCache {
	return &ListViewCache{redis: redis, ttl: ttl}
}

func (c *ListViewCache) key(adminID int) string {
	return fmt.Sprintf("listview:%d", adminID)
}

// Get returns the stored query, or the initial one when nothing is stored.
func (c *ListViewCache) Get(ctx context.Context, adminID int) (listing.Query, error) {
	data, err := c.redis.Get(ctx, c.key(adminID))
	if errors.Is(err, ErrMiss) {
		return listing.New(), nil
	}
	if err != nil {
		return listing.Query{}, err
	}

	var q listing.Query
	if err := json.Unmarshal([]byte(data), &q); err != nil {
		return listing.New(), nil
	}
	return q.Normalize(), nil
}

// Save stores the query.
func (c *ListViewCache) Save(ctx context.Context, adminID int, q listing.Query) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to marshal list view: %w", err)
	}
	return c.redis.Set(ctx, c.key(adminID), string(data), c.ttl)
}
