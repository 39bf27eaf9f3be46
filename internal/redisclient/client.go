package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"supplychain-service/internal/models"
	"supplychain-service/internal/port"

	"github.com/go-redis/redis/v8"
)

const (
	variantTTL     = 30 * time.Second
	idempotencyTTL = 24 * time.Hour
)

// Client caches inventory snapshots for the read path and keeps
// idempotency keys. Postgres stays authoritative: every stock mutation
// invalidates the affected snapshots, and a short TTL bounds staleness if
// an invalidation is lost.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func variantKey(variantID int64) string {
	return fmt.Sprintf("variant:%d", variantID)
}

// CacheVariant stores one variant's inventory snapshot
func (c *Client) CacheVariant(ctx context.Context, v *models.ProductVariant) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal variant: %w", err)
	}
	return c.rdb.Set(ctx, variantKey(v.ID), payload, variantTTL).Err()
}

// CachedVariant retrieves a cached inventory snapshot. Returns
// port.ErrNotFound on a miss.
func (c *Client) CachedVariant(ctx context.Context, variantID int64) (*models.ProductVariant, error) {
	payload, err := c.rdb.Get(ctx, variantKey(variantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var v models.ProductVariant
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached variant: %w", err)
	}
	return &v, nil
}

// InvalidateVariants drops the cached snapshots for the given variants
func (c *Client) InvalidateVariants(ctx context.Context, variantIDs ...int64) error {
	if len(variantIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(variantIDs))
	for _, id := range variantIDs {
		keys = append(keys, variantKey(id))
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// SetIdempotencyKey records an idempotency key with the order it produced
func (c *Client) SetIdempotencyKey(ctx context.Context, key string, orderID int64) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s", key), orderID, idempotencyTTL).Err()
}
