package querycache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Veldhaus/credgate/kvcache"
	"github.com/Veldhaus/credgate/registry"
)

// Cache stores serialized query results with group-based invalidation.
type Cache struct {
	cache    kvcache.Client
	registry *registry.Store
	ttl      time.Duration
	log      zerolog.Logger
}

// New creates a query-result [Cache]. ttl applies to every stored entry.
func New(cache kvcache.Client, reg *registry.Store, ttl time.Duration, log zerolog.Logger) *Cache {
	return &Cache{cache: cache, registry: reg, ttl: ttl, log: log}
}

// Key derives the deterministic cache key for a query: the entity type
// plus a hash of the ordered parameters.
func Key(entityType string, params ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(params, "\x1f")))
	return entityType + ":" + hex.EncodeToString(sum[:])
}

// Get returns the cached payload for key and whether it was a hit. Backend
// failure reads as a miss.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	payload, err := c.cache.Get(ctx, key)
	if err != nil {
		if !kvcache.IsMiss(err) {
			c.log.Warn().Err(err).Str("key", key).Msg("query cache read failed, serving as miss")
		}
		return "", false
	}
	return payload, true
}

// Set stores a payload under key and registers the key into the entity's
// invalidation group. Failures are logged and swallowed; the caller has
// already computed the result it is caching.
func (c *Cache) Set(ctx context.Context, entityType, key, payload string) {
	if err := c.cache.Set(ctx, key, payload, c.ttl); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("query cache write failed")
		return
	}
	if err := c.registry.Register(ctx, group(entityType), key); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("query cache group registration failed")
	}
}

// InvalidateEntity drops every cached query registered for an entity type.
// Called after any mutation of that entity so stale results are never
// served.
func (c *Cache) InvalidateEntity(ctx context.Context, entityType string) error {
	return c.registry.Invalidate(ctx, group(entityType))
}

func group(entityType string) string {
	return entityType + ":queries"
}
