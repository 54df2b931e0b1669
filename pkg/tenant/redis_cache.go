package tenant

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/kbm/pkg/logger"
)

// DefaultRedisKeyPrefix namespaces tenant records in a shared Redis.
const DefaultRedisKeyPrefix = "kbm:tenant:"

// RedisCache stores tenant records as JSON in Redis so several processes
// share one view of the control plane. Redis failures degrade to a cache
// miss and are logged, never returned.
type RedisCache struct {
	client redis.Cmdable
	prefix string
	log    *slog.Logger
}

// NewRedisCache wraps client. An empty prefix uses DefaultRedisKeyPrefix.
func NewRedisCache(client redis.Cmdable, prefix string, log *slog.Logger) *RedisCache {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	if log == nil {
		log = logger.Discard()
	}
	return &RedisCache{client: client, prefix: prefix, log: log}
}

func (c *RedisCache) key(id ID) string {
	return c.prefix + id.String()
}

func (c *RedisCache) Get(ctx context.Context, id ID) (*Tenant, bool) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.WarnContext(ctx, "tenant cache read failed", logger.TenantID(id.String()), logger.Error(err))
		}
		return nil, false
	}
	var t Tenant
	if err := json.Unmarshal(raw, &t); err != nil {
		c.log.WarnContext(ctx, "tenant cache entry is corrupt", logger.TenantID(id.String()), logger.Error(err))
		return nil, false
	}
	return &t, true
}

func (c *RedisCache) Set(ctx context.Context, t *Tenant, ttl time.Duration) {
	if t == nil {
		return
	}
	raw, err := json.Marshal(t)
	if err != nil {
		c.log.WarnContext(ctx, "tenant cache encode failed", logger.TenantID(t.ID.String()), logger.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.key(t.ID), raw, ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "tenant cache write failed", logger.TenantID(t.ID.String()), logger.Error(err))
	}
}

func (c *RedisCache) Delete(ctx context.Context, id ID) {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		c.log.WarnContext(ctx, "tenant cache delete failed", logger.TenantID(id.String()), logger.Error(err))
	}
}
