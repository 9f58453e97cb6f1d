package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/timebill-api/internal/domain/entity"
	"github.com/jhoicas/timebill-api/internal/infrastructure/cache"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisTimerCache_SetGetDelete(t *testing.T) {
	mr, client := newRedis(t)
	c := cache.NewRedisTimerCache(client, time.Hour)
	ctx := context.Background()

	got, err := c.Get(ctx, "owner-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, c.Set(ctx, "owner-1", entity.ActiveTimer{ID: "t1", StartedAt: started, ProjectID: "p1"}))
	assert.True(t, mr.Exists("timer:active:owner-1"))
	assert.Equal(t, time.Hour, mr.TTL("timer:active:owner-1"))

	got, err = c.Get(ctx, "owner-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "t1", got.ID)
	assert.Equal(t, "p1", got.ProjectID)
	assert.True(t, started.Equal(got.StartedAt))

	require.NoError(t, c.Delete(ctx, "owner-1"))
	got, err = c.Get(ctx, "owner-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisTimerCache_Expires(t *testing.T) {
	mr, client := newRedis(t)
	c := cache.NewRedisTimerCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "owner-1", entity.ActiveTimer{ID: "t1"}))
	mr.FastForward(2 * time.Minute)

	got, err := c.Get(ctx, "owner-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisTimerCache_ServerDownIsError(t *testing.T) {
	mr, client := newRedis(t)
	c := cache.NewRedisTimerCache(client, time.Minute)
	mr.Close()

	_, err := c.Get(context.Background(), "owner-1")
	assert.Error(t, err)
}

func TestInMemoryTimerCache(t *testing.T) {
	c := cache.NewInMemoryTimerCache(0)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "o", entity.ActiveTimer{ID: "t1"}))
	got, err := c.Get(ctx, "o")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "t1", got.ID)

	require.NoError(t, c.Delete(ctx, "o"))
	got, err = c.Get(ctx, "o")
	require.NoError(t, err)
	assert.Nil(t, got)
}
