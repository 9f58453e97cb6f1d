package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/timebill-api/internal/application/timer"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
)

// InMemoryTimerCache caché de proceso para despliegues de una sola instancia.
type InMemoryTimerCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memEntry
	now     func() time.Time
}

type memEntry struct {
	timer     entity.ActiveTimer
	expiresAt time.Time
}

// NewInMemoryTimerCache ttl <= 0 = sin expiración.
func NewInMemoryTimerCache(ttl time.Duration) *InMemoryTimerCache {
	return &InMemoryTimerCache{ttl: ttl, entries: map[string]memEntry{}, now: time.Now}
}

func (c *InMemoryTimerCache) Get(_ context.Context, ownerID string) (*entity.ActiveTimer, error) {
	c.mu.RLock()
	e, ok := c.entries[ownerID]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, ownerID)
		c.mu.Unlock()
		return nil, nil
	}
	t := e.timer
	return &t, nil
}

func (c *InMemoryTimerCache) Set(_ context.Context, ownerID string, t entity.ActiveTimer) error {
	e := memEntry{timer: t}
	if c.ttl > 0 {
		e.expiresAt = c.now().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries[ownerID] = e
	c.mu.Unlock()
	return nil
}

func (c *InMemoryTimerCache) Delete(_ context.Context, ownerID string) error {
	c.mu.Lock()
	delete(c.entries, ownerID)
	c.mu.Unlock()
	return nil
}

var _ timer.Cache = (*InMemoryTimerCache)(nil)
