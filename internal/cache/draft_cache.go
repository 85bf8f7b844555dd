package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/GTDGit/market_admin/internal/productform"
)

// ErrDraftNotFound is returned for unknown or expired drafts.
var ErrDraftNotFound = errors.New("DRAFT_NOT_FOUND")

// Draft is a product form in progress.
type Draft struct {
	ID      string `json:"id"`
	AdminID int    `json:"adminId"`

	// ProductID is set when the draft edits an existing listing.
	ProductID string `json:"productId,omitempty"`

	Form      productform.Form `json:"form"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// DraftCache stores drafts per admin. Each save refreshes the TTL.
type DraftCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewDraftCache creates a DraftCache.
func NewDraftCache(redis *RedisClient, ttl time.Duration) *DraftCache {
	return &DraftCache{redis: redis, ttl: ttl}
}

func (c *DraftCache) key(adminID int, draftID string) string {
	return fmt.Sprintf("draft:%d:%s", adminID, draftID)
}

// Save stores the draft.
func (c *DraftCache) Save(ctx context.Context, d *Draft) error {
	d.UpdatedAt = time.Now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = d.UpdatedAt
	}

	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	if err := c.redis.Set(ctx, c.key(d.AdminID, d.ID), string(data), c.ttl); err != nil {
		return fmt.Errorf("failed to store draft: %w", err)
	}
	return nil
}

// Get loads a draft owned by adminID.
func (c *DraftCache) Get(ctx context.Context, adminID int, draftID string) (*Draft, error) {
	data, err := c.redis.Get(ctx, c.key(adminID, draftID))
	if errors.Is(err, ErrMiss) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, err
	}

	var d Draft
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	if d.Form.Errors == nil {
		d.Form.Errors = productform.Errors{}
	}
	return &d, nil
}

// Delete removes a draft.
func (c *DraftCache) Delete(ctx context.Context, adminID int, draftID string) error {
	return c.redis.Delete(ctx, c.key(adminID, draftID))
}
