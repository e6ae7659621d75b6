package repository

import (
	"context"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/Payphone-Digital/auth-service/pkg/cache"
	"github.com/Payphone-Digital/auth-service/pkg/circuit"
	"github.com/Payphone-Digital/auth-service/pkg/redis"
)

// RedisTokenDenylist records revoked access token ids in Redis. Entries
// expire together with the token they block. Calls go through a breaker so a
// Redis outage costs one fast error per request instead of a dial timeout.
type RedisTokenDenylist struct {
	client  *redis.Client
	breaker *circuit.Breaker
}

func NewRedisTokenDenylist(client *redis.Client, breaker *circuit.Breaker) *RedisTokenDenylist {
	if breaker == nil {
		breaker = circuit.NewBreaker("redis-denylist", circuit.DefaultConfig(), nil)
	}
	return &RedisTokenDenylist{client: client, breaker: breaker}
}

func (d *RedisTokenDenylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return d.breaker.Do(ctx, func(ctx context.Context) error {
		return d.client.SetWithTTL(ctx, constants.CacheKeyRevokedAccess+jti, "1", ttl)
	})
}

func (d *RedisTokenDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := d.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		revoked, err = d.client.Exists(ctx, constants.CacheKeyRevokedAccess+jti)
		return err
	})
	return revoked, err
}

// MemoryTokenDenylist is the single-process fallback used when Redis is off.
type MemoryTokenDenylist struct {
	cache *cache.Cache
}

func NewMemoryTokenDenylist(c *cache.Cache) *MemoryTokenDenylist {
	return &MemoryTokenDenylist{cache: c}
}

func (d *MemoryTokenDenylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	d.cache.Set(constants.CacheKeyRevokedAccess+jti, true, ttl)
	return nil
}

func (d *MemoryTokenDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, ok := d.cache.Get(constants.CacheKeyRevokedAccess + jti)
	return ok, nil
}
