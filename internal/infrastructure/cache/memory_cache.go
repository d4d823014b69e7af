package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is a process-local TenantCache for single-instance
// deployments and tests
type MemoryCache struct {
	mu        sync.RWMutex
	tenants   map[uuid.UUID]map[string]entry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMemoryCache creates a MemoryCache that sweeps expired entries every
// sweepInterval. A non-positive interval disables the sweeper.
func NewMemoryCache(sweepInterval time.Duration) *MemoryCache {
	c := &MemoryCache{
		tenants:  make(map[uuid.UUID]map[string]entry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	if sweepInterval > 0 {
		c.wg.Add(1)
		go c.sweepLoop(sweepInterval)
	}
	return c
}

// Get implements shared.TenantCache
func (c *MemoryCache) Get(_ context.Context, tenantID uuid.UUID, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.tenants[tenantID][key]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set implements shared.TenantCache
func (c *MemoryCache) Set(_ context.Context, tenantID uuid.UUID, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, ok := c.tenants[tenantID]
	if !ok {
		entries = make(map[string]entry)
		c.tenants[tenantID] = entries
	}
	entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
	return nil
}

// InvalidateTenant implements shared.TenantCache
func (c *MemoryCache) InvalidateTenant(_ context.Context, tenantID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tenants, tenantID)
	return nil
}

// Len returns the number of live and expired entries held
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, entries := range c.tenants {
		n += len(entries)
	}
	return n
}

// Close stops the sweeper. Safe to call more than once.
func (c *MemoryCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

func (c *MemoryCache) sweepLoop(interval time.Duration) {
	defer c.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *MemoryCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for tenantID, entries := range c.tenants {
		for key, e := range entries {
			if !now.Before(e.expiresAt) {
				delete(entries, key)
			}
		}
		if len(entries) == 0 {
			delete(c.tenants, tenantID)
		}
	}
}

var _ shared.TenantCache = (*MemoryCache)(nil)
