// Package redis implements the cart read cache on Redis.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/go-faster/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/xenking/herbal-kart/internal/domain/cart"
)

// DefaultTTL is the base lifetime of a cache entry.
const DefaultTTL = 15 * time.Minute

// maxJitter spreads expirations of entries written together.
const maxJitter = 5 * time.Minute

var _ cart.Cache = (*CartCache)(nil)

// setIfNotOlder writes the cart hash unless it holds a higher version.
// KEYS[1] cache key, ARGV[1] version, ARGV[2] JSON, ARGV[3] ttl in ms.
var setIfNotOlder = goredis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'version')
if cur and tonumber(cur) > tonumber(ARGV[1]) then
	return 0
end
redis.call('HSET', KEYS[1], 'version', ARGV[1], 'data', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// CartCache stores carts in a hash under "cart:<user_id>": the JSON document
// in "data" and its version in "version".
type CartCache struct {
	client  *goredis.Client
	baseTTL time.Duration
}

// NewCartCache returns a CartCache. A non-positive ttl means DefaultTTL.
func NewCartCache(client *goredis.Client, ttl time.Duration) *CartCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CartCache{client: client, baseTTL: ttl}
}

// Get implements cart.Cache.
func (c *CartCache) Get(ctx context.Context, userID string) (*cart.Cart, error) {
	data, err := c.client.HGet(ctx, cacheKey(userID), "data").Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, cart.ErrCacheMiss
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get")
	}

	var v cart.Cart
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrap(err, "unmarshal cart")
	}
	if v.Items == nil {
		v.Items = []cart.Item{}
	}
	return &v, nil
}

// Set implements cart.Cache. An entry with a higher version is kept.
func (c *CartCache) Set(ctx context.Context, v *cart.Cart) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshal cart")
	}

	ttl := c.baseTTL + rand.N(maxJitter)
	err = setIfNotOlder.Run(ctx, c.client,
		[]string{cacheKey(v.UserID)},
		v.Version, data, ttl.Milliseconds(),
	).Err()
	if err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

// Delete implements cart.Cache.
func (c *CartCache) Delete(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		return errors.Wrap(err, "redis del")
	}
	return nil
}

// Ping checks connectivity with Redis.
func (c *CartCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func cacheKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}
