package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"marketplace-spotlight-api/models"
)

const defaultStatusCacheTTL = 30 * time.Second

// StatusCache keeps the public per-listing spotlight status in Redis.
// All methods degrade to no-ops when Redis is not available, so the
// service runs fine without it.
type StatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatusCache wraps a Redis client. A nil client disables caching.
func NewStatusCache(client *redis.Client) *StatusCache {
	ttl := defaultStatusCacheTTL
	if raw := os.Getenv("SPOTLIGHT_STATUS_CACHE_TTL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			ttl = parsed
		}
	}
	return &StatusCache{client: client, ttl: ttl}
}

func statusCacheKey(listingID int) string {
	return fmt.Sprintf("spotlight:status:%d", listingID)
}

// Get returns the cached status, or (nil, false) on miss. A cached
// "spotlighted" payload whose end time has already passed counts as a
// miss: an expired window must never be served as live, even when the
// sweeper has not caught up with this listing yet.
func (c *StatusCache) Get(ctx context.Context, listingID int) (*models.SpotlightStatusResponse, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, statusCacheKey(listingID)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("status cache: get failed for listing %d: %v", listingID, err)
		return nil, false
	}

	var status models.SpotlightStatusResponse
	if err := json.Unmarshal([]byte(raw), &status); err != nil {
		log.Printf("status cache: bad payload for listing %d: %v", listingID, err)
		return nil, false
	}
	if status.IsSpotlighted && status.EndTime != nil && !status.EndTime.After(time.Now().UTC()) {
		return nil, false
	}
	return &status, true
}

func (c *StatusCache) Set(ctx context.Context, status *models.SpotlightStatusResponse) {
	if c == nil || c.client == nil || status == nil {
		return
	}
	payload, err := json.Marshal(status)
	if err != nil {
		log.Printf("status cache: marshal failed for listing %d: %v", status.ListingID, err)
		return
	}
	if err := c.client.Set(ctx, statusCacheKey(status.ListingID), payload, c.ttl).Err(); err != nil {
		log.Printf("status cache: set failed for listing %d: %v", status.ListingID, err)
	}
}

// Invalidate drops the cached status after a lifecycle transition.
func (c *StatusCache) Invalidate(ctx context.Context, listingID int) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, statusCacheKey(listingID)).Err(); err != nil {
		log.Printf("status cache: invalidate failed for listing %d: %v", listingID, err)
	}
}
