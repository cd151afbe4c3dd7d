package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/redis/go-redis/v9"

	"github.com/brightform/userhub/internal/identity"
)

// RedisKeysetCache caches the identity provider JWKS in Redis so session
// verification does not hit the provider on every request.
type RedisKeysetCache struct {
	client redis.UniversalClient
	source identity.KeysetSource
	ttl    time.Duration
	key    string
}

var _ identity.KeysetSource = (*RedisKeysetCache)(nil)

// NewRedisKeysetCache wraps source with a Redis-backed TTL cache.
func NewRedisKeysetCache(client redis.UniversalClient, source identity.KeysetSource, ttl time.Duration) *RedisKeysetCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisKeysetCache{
		client: client,
		source: source,
		ttl:    ttl,
		key:    "userhub:identity:jwks",
	}
}

// Keyset returns the cached keyset, refreshing from the source on a miss.
// A Redis read error falls through to the source rather than failing the
// request.
func (c *RedisKeysetCache) Keyset(ctx context.Context) (jose.JSONWebKeySet, error) {
	if bytes, err := c.client.Get(ctx, c.key).Bytes(); err == nil {
		var keyset jose.JSONWebKeySet
		if err := json.Unmarshal(bytes, &keyset); err == nil {
			return keyset, nil
		}
	}

	keyset, err := c.source.Keyset(ctx)
	if err != nil {
		return jose.JSONWebKeySet{}, fmt.Errorf("refresh keyset: %w", err)
	}

	if payload, err := json.Marshal(keyset); err == nil {
		_ = c.client.Set(ctx, c.key, payload, c.ttl).Err()
	}
	return keyset, nil
}

// Invalidate drops the cached keyset, forcing the next read to refresh.
func (c *RedisKeysetCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("invalidate keyset: %w", err)
	}
	return nil
}
