// Package cache holds the last accepted snapshot for the cached tier.
package cache

import (
	"context"
	"sync"

	"mse-observer/src/models"
)

// MemoryCache keeps one snapshot in process memory. Callers receive copies,
// so a snapshot handed out can never be mutated through the cache.
type MemoryCache struct {
	mu       sync.RWMutex
	snapshot models.MSnapshot
	present  bool
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

// -----------------------------------------------------------------------------

func (c *MemoryCache) Init(ctx context.Context) error {
	return c.Clear(ctx)
}

// -----------------------------------------------------------------------------

func (c *MemoryCache) Get(ctx context.Context) (models.MSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.present {
		return models.MSnapshot{}, false
	}
	return cloneSnapshot(c.snapshot), true
}

// -----------------------------------------------------------------------------

func (c *MemoryCache) Set(ctx context.Context, snapshot models.MSnapshot) error {
	c.mu.Lock()
	c.snapshot = cloneSnapshot(snapshot)
	c.present = true
	c.mu.Unlock()
	return nil
}

// -----------------------------------------------------------------------------

func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.snapshot = models.MSnapshot{}
	c.present = false
	c.mu.Unlock()
	return nil
}

// -----------------------------------------------------------------------------

func cloneSnapshot(s models.MSnapshot) models.MSnapshot {
	out := s
	if s.Stocks != nil {
		out.Stocks = append([]models.MStockRecord(nil), s.Stocks...)
	}
	if s.Warnings != nil {
		out.Warnings = append([]string(nil), s.Warnings...)
	}
	return out
}
