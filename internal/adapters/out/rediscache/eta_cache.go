// Package rediscache caches delivery estimates in Redis with a short TTL.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/services"

	"github.com/redis/go-redis/v9"
)

// ETACache stores serialized estimates keyed by order id. Estimates are
// advisory, so a miss and a stale entry are both acceptable; the TTL bounds
// how stale a served estimate can get.
type ETACache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewETACache creates a cache over an existing Redis client.
func NewETACache(client *redis.Client, ttl time.Duration) *ETACache {
	return &ETACache{client: client, ttl: ttl}
}

func cacheKey(orderID kernel.UUID) string {
	return fmt.Sprintf("order:eta:%s", orderID.String())
}

// Get returns the cached estimate, or (nil, nil) on a miss.
func (c *ETACache) Get(ctx context.Context, orderID kernel.UUID) (*services.Estimate, error) {
	payload, err := c.client.Get(ctx, cacheKey(orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached estimate: %w", err)
	}

	var estimate services.Estimate
	if err = json.Unmarshal(payload, &estimate); err != nil {
		// A corrupt entry behaves like a miss; the next Set overwrites it.
		return nil, nil
	}

	return &estimate, nil
}

// Set stores the estimate under the configured TTL.
func (c *ETACache) Set(ctx context.Context, orderID kernel.UUID, estimate services.Estimate) error {
	payload, err := json.Marshal(estimate)
	if err != nil {
		return fmt.Errorf("failed to encode estimate: %w", err)
	}

	if err = c.client.Set(ctx, cacheKey(orderID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache estimate: %w", err)
	}

	return nil
}

// Invalidate drops the cached estimate after a status change.
func (c *ETACache) Invalidate(ctx context.Context, orderID kernel.UUID) error {
	if err := c.client.Del(ctx, cacheKey(orderID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached estimate: %w", err)
	}
	return nil
}
