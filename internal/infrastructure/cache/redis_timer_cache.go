package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/timebill-api/internal/application/timer"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
)

const timerKeyPrefix = "timer:active:"

// RedisTimerCache guarda {id, started_at, project_id} del temporizador activo bajo timer:active:<owner>.
// El TTL acota la vida de entradas huérfanas si un proceso cae entre el commit y la invalidación.
type RedisTimerCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTimerCache crea el adaptador sobre un cliente compartido (el llamador lo cierra).
func NewRedisTimerCache(client *redis.Client, ttl time.Duration) *RedisTimerCache {
	return &RedisTimerCache{client: client, ttl: ttl}
}

func (c *RedisTimerCache) Get(ctx context.Context, ownerID string) (*entity.ActiveTimer, error) {
	raw, err := c.client.Get(ctx, timerKeyPrefix+ownerID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis timer get: %w", err)
	}
	var t entity.ActiveTimer
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("redis timer decode: %w", err)
	}
	return &t, nil
}

func (c *RedisTimerCache) Set(ctx context.Context, ownerID string, t entity.ActiveTimer) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, timerKeyPrefix+ownerID, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis timer set: %w", err)
	}
	return nil
}

func (c *RedisTimerCache) Delete(ctx context.Context, ownerID string) error {
	if err := c.client.Del(ctx, timerKeyPrefix+ownerID).Err(); err != nil {
		return fmt.Errorf("redis timer del: %w", err)
	}
	return nil
}

var _ timer.Cache = (*RedisTimerCache)(nil)
