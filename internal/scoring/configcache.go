package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const activeConfigKey = "scoring:config:activa"

// ConfigCache keeps the active configuration in Redis and collapses
// concurrent cache misses onto a single loader call. Redis failures degrade
// to the loader; the database stays the source of truth.
type ConfigCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewConfigCache instantiates the cache helper.
func NewConfigCache(client *redis.Client, ttl time.Duration) *ConfigCache {
	return &ConfigCache{client: client, ttl: ttl}
}

// Active returns the cached active config or populates it using the loader.
func (c *ConfigCache) Active(ctx context.Context, loader func(context.Context) (Config, error)) (Config, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}

	raw, err := c.client.Get(ctx, activeConfigKey).Bytes()
	if err == nil {
		var cfg Config
		if err := json.Unmarshal(raw, &cfg); err == nil {
			return cfg, nil
		}
		// Unreadable payload: fall through and repopulate.
	} else if !errors.Is(err, redis.Nil) {
		return loader(ctx)
	}

	v, err, _ := c.group.Do(activeConfigKey, func() (any, error) {
		cfg, err := loader(ctx)
		if err != nil {
			return Config{}, err
		}
		if data, err := json.Marshal(cfg); err == nil {
			_ = c.client.Set(ctx, activeConfigKey, data, c.ttl).Err()
		}
		return cfg, nil
	})
	if err != nil {
		return Config{}, err
	}
	return v.(Config), nil
}

// Invalidate drops the cached config after an activation swap.
func (c *ConfigCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, activeConfigKey).Err()
}
