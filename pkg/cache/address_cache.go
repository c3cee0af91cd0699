package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultAddressCacheTTL applies when NewAddressCache is given a zero TTL.
	DefaultAddressCacheTTL = 24 * time.Hour

	addressCacheKeyPrefix = "postal"
)

// CachedAddress is a postal-code lookup result stored as a Redis hash.
type CachedAddress struct {
	ZipCode      string
	Street       string
	Complement   string
	Neighborhood string
	City         string
	State        string
}

// AddressCache stores successful postal-code lookups.
// Key format: "postal:{digits}"
type AddressCache struct {
	client *RedisClient
	ttl    time.Duration
}

// NewAddressCache creates a new AddressCache backed by the given RedisClient.
func NewAddressCache(r *RedisClient, ttl time.Duration) *AddressCache {
	if ttl <= 0 {
		ttl = DefaultAddressCacheTTL
	}
	return &AddressCache{client: r, ttl: ttl}
}

// Get retrieves a cached address by postal code.
// Returns redis.Nil error when the key does not exist or has expired.
func (c *AddressCache) Get(ctx context.Context, zip string) (*CachedAddress, error) {
	vals, err := c.client.Client().HGetAll(ctx, c.key(zip)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if len(vals) == 0 {
		return nil, redis.Nil // key not found
	}

	return &CachedAddress{
		ZipCode:      vals["zip_code"],
		Street:       vals["street"],
		Complement:   vals["complement"],
		Neighborhood: vals["neighborhood"],
		City:         vals["city"],
		State:        vals["state"],
	}, nil
}

// Set writes the address as a Redis hash and applies the TTL in one pipeline.
func (c *AddressCache) Set(ctx context.Context, a *CachedAddress) error {
	key := c.key(a.ZipCode)
	pipe := c.client.Client().Pipeline()
	pipe.HSet(ctx, key,
		"zip_code", a.ZipCode,
		"street", a.Street,
		"complement", a.Complement,
		"neighborhood", a.Neighborhood,
		"city", a.City,
		"state", a.State,
	)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *AddressCache) key(zip string) string {
	return fmt.Sprintf("%s:%s", addressCacheKeyPrefix, zip)
}
