package scoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestConfigCacheLoadsOnceUntilInvalidated(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewConfigCache(client, time.Minute)
	ctx := context.Background()

	cfg := DefaultConfig()
	loads := 0
	loader := func(context.Context) (Config, error) {
		loads++
		return cfg, nil
	}

	got, err := cache.Active(ctx, loader)
	require.NoError(t, err)
	require.Equal(t, cfg.Nombre, got.Nombre)
	require.Equal(t, 1, loads)

	// Second read is served from Redis.
	_, err = cache.Active(ctx, loader)
	require.NoError(t, err)
	require.Equal(t, 1, loads)

	require.NoError(t, cache.Invalidate(ctx))

	_, err = cache.Active(ctx, loader)
	require.NoError(t, err)
	require.Equal(t, 2, loads)
}

func TestConfigCacheLoaderErrorPropagates(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewConfigCache(client, time.Minute)

	wantErr := errors.New("boom")
	_, err := cache.Active(context.Background(), func(context.Context) (Config, error) {
		return Config{}, wantErr
	})
	require.ErrorIs(t, err, wantErr)
}

func TestConfigCacheNilDegradesToLoader(t *testing.T) {
	var cache *ConfigCache

	cfg := DefaultConfig()
	got, err := cache.Active(context.Background(), func(context.Context) (Config, error) {
		return cfg, nil
	})
	require.NoError(t, err)
	require.Equal(t, cfg.Nombre, got.Nombre)
	require.NoError(t, cache.Invalidate(context.Background()))
}

func TestConfigCacheRedisDownDegradesToLoader(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewConfigCache(client, time.Minute)
	mr.Close()

	cfg := DefaultConfig()
	got, err := cache.Active(context.Background(), func(context.Context) (Config, error) {
		return cfg, nil
	})
	require.NoError(t, err)
	require.Equal(t, cfg.Nombre, got.Nombre)
}
