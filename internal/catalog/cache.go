package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	dErrors "opsdesk/pkg/domain-errors"
)

const defaultCacheTTL = 5 * time.Minute

// Cache is a read-through Redis decorator over a Gateway. Package data
// changes rarely, so a short TTL keeps provisioning off the catalog service's
// hot path. Redis failures degrade to direct lookups; the cache never turns
// a working catalog into an outage.
type Cache struct {
	next   Gateway
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

type CacheOption func(*Cache)

// WithTTL overrides the default cache entry lifetime.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets the logger used when Redis misbehaves.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewCache(next Gateway, client *redis.Client, opts ...CacheOption) *Cache {
	c := &Cache{
		next:   next,
		client: client,
		ttl:    defaultCacheTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func cacheKey(id string) string {
	return "catalog:package:" + id
}

func (c *Cache) GetPackage(ctx context.Context, id string) (*Package, error) {
	raw, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if err == nil {
		var p Package
		if unmarshalErr := json.Unmarshal(raw, &p); unmarshalErr == nil {
			return &p, nil
		}
		// Corrupt entry; fall through and overwrite it.
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "catalog cache read failed", "package_id", id, "error", err)
	}

	p, err := c.next.GetPackage(ctx, id)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(p)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("encode package %s", id))
	}
	if err := c.client.Set(ctx, cacheKey(id), encoded, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "catalog cache write failed", "package_id", id, "error", err)
	}
	return p, nil
}
