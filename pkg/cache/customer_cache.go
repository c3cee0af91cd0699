package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultCustomerCacheTTL applies when NewCustomerCache is given a zero TTL.
	DefaultCustomerCacheTTL = 5 * time.Minute

	// DefaultTombstoneTTL is the shortest time a deleted customer stays
	// blocked from being cached again.
	DefaultTombstoneTTL = 24 * time.Hour

	customerCacheKeyPrefix = "customer"
	tombstoneSuffix        = "deleted"
)

// ErrCustomerDeleted is returned by Set when the customer carries a tombstone.
var ErrCustomerDeleted = errors.New("customer is deleted")

// setUnlessDeleted writes KEYS[1] only while the tombstone KEYS[2] is absent.
var setUnlessDeleted = redis.NewScript(`
if redis.call("EXISTS", KEYS[2]) == 1 then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
return 1
`)

// CachedCustomer is the denormalized read model stored in Redis.
// Only active (non-deleted) customers are cached.
type CachedCustomer struct {
	ID                      uuid.UUID  `json:"id"`
	Name                    string     `json:"name"`
	Document                string     `json:"document"`
	CustomerType            int        `json:"customer_type"`
	BirthDate               *time.Time `json:"birth_date,omitempty"`
	Phone                   string     `json:"phone"`
	Email                   string     `json:"email"`
	ZipCode                 string     `json:"zip_code"`
	Street                  string     `json:"street"`
	Number                  string     `json:"number"`
	Complement              string     `json:"complement,omitempty"`
	Neighborhood            string     `json:"neighborhood"`
	City                    string     `json:"city"`
	State                   string     `json:"state"`
	StateRegistration       string     `json:"state_registration,omitempty"`
	StateRegistrationExempt bool       `json:"state_registration_exempt"`
	CreatedBy               string     `json:"created_by"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedBy               string     `json:"updated_by,omitempty"`
	UpdatedAt               *time.Time `json:"updated_at,omitempty"`
}

// CustomerCache is a read-through cache for customers by id.
// Key format: "customer:{customerID}"; value is the JSON-encoded CachedCustomer.
type CustomerCache struct {
	client *RedisClient
	ttl    time.Duration
}

// NewCustomerCache creates a CustomerCache backed by the given RedisClient.
func NewCustomerCache(r *RedisClient, ttl time.Duration) *CustomerCache {
	if ttl <= 0 {
		ttl = DefaultCustomerCacheTTL
	}
	return &CustomerCache{client: r, ttl: ttl}
}

// Get retrieves a cached customer.
// Returns redis.Nil error when the key does not exist or has expired.
func (c *CustomerCache) Get(ctx context.Context, id uuid.UUID) (*CachedCustomer, error) {
	raw, err := c.client.Client().Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if IsMiss(err) {
			return nil, redis.Nil
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var cc CachedCustomer
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, fmt.Errorf("cache decode customer: %w", err)
	}
	return &cc, nil
}

// Set stores the customer with the configured TTL. A tombstoned customer is
// left uncached and ErrCustomerDeleted is returned; the check and the write
// are a single server-side step.
func (c *CustomerCache) Set(ctx context.Context, cc *CachedCustomer) error {
	raw, err := json.Marshal(cc)
	if err != nil {
		return fmt.Errorf("cache encode customer: %w", err)
	}
	keys := []string{c.key(cc.ID), c.tombstoneKey(cc.ID)}
	written, err := setUnlessDeleted.Run(ctx, c.client.Client(), keys, raw, c.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	if written == 0 {
		return ErrCustomerDeleted
	}
	return nil
}

// MarkDeleted evicts the customer and leaves a tombstone so late warm-ups
// for the same id are refused. It is idempotent.
func (c *CustomerCache) MarkDeleted(ctx context.Context, id uuid.UUID) error {
	_, err := c.client.Client().TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, c.tombstoneKey(id), "1", c.tombstoneTTL())
		pipe.Del(ctx, c.key(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache mark deleted: %w", err)
	}
	return nil
}

// Delete removes a cached customer. Deleting a missing key is not an error.
func (c *CustomerCache) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Client().Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// key builds the Redis key: "customer:{customerID}"
func (c *CustomerCache) key(id uuid.UUID) string {
	return fmt.Sprintf("%s:%s", customerCacheKeyPrefix, id)
}

// tombstoneKey builds "customer:{customerID}:deleted".
func (c *CustomerCache) tombstoneKey(id uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s", customerCacheKeyPrefix, id, tombstoneSuffix)
}

func (c *CustomerCache) tombstoneTTL() time.Duration {
	return max(c.ttl, DefaultTombstoneTTL)
}
