package cache

import (
	"context"
	"sync/atomic"

	"mse-observer/src/interfaces"
	"mse-observer/src/logger"
	"mse-observer/src/models"
)

// LayeredCache reads process memory first and falls back to a shared
// secondary cache. A secondary that fails Init is switched off and the
// process keeps running on memory alone.
type LayeredCache struct {
	Primary   *MemoryCache
	Secondary interfaces.ISnapshotCache
	Logger    *logger.Logger

	secondaryUp atomic.Bool
}

func NewLayeredCache(secondary interfaces.ISnapshotCache, log *logger.Logger) *LayeredCache {
	return &LayeredCache{Primary: NewMemoryCache(), Secondary: secondary, Logger: log}
}

// -----------------------------------------------------------------------------

func (c *LayeredCache) Init(ctx context.Context) error {
	if err := c.Primary.Init(ctx); err != nil {
		return err
	}
	if c.Secondary == nil {
		return nil
	}
	if err := c.Secondary.Init(ctx); err != nil {
		c.Logger.Warning("Shared cache unavailable, using memory only: %v", err)
		return nil
	}
	c.secondaryUp.Store(true)
	return nil
}

// -----------------------------------------------------------------------------

func (c *LayeredCache) Get(ctx context.Context) (models.MSnapshot, bool) {
	if snap, ok := c.Primary.Get(ctx); ok {
		return snap, true
	}
	if !c.secondaryUp.Load() {
		return models.MSnapshot{}, false
	}

	snap, ok := c.Secondary.Get(ctx)
	if ok {
		_ = c.Primary.Set(ctx, snap)
	}
	return snap, ok
}

// -----------------------------------------------------------------------------

func (c *LayeredCache) Set(ctx context.Context, snapshot models.MSnapshot) error {
	if err := c.Primary.Set(ctx, snapshot); err != nil {
		return err
	}
	if c.secondaryUp.Load() {
		if err := c.Secondary.Set(ctx, snapshot); err != nil {
			c.Logger.Warning("Shared cache write failed: %v", err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (c *LayeredCache) Clear(ctx context.Context) error {
	if err := c.Primary.Clear(ctx); err != nil {
		return err
	}
	if c.secondaryUp.Load() {
		return c.Secondary.Clear(ctx)
	}
	return nil
}

// -----------------------------------------------------------------------------

// Close releases the secondary's connections, if it holds any.
func (c *LayeredCache) Close() error {
	if closer, ok := c.Secondary.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------

// New builds the cache selected by cfg: memory only, or memory over Redis.
func New(cfg models.MCacheConfig, log *logger.Logger) interfaces.ISnapshotCache {
	if !cfg.RedisEnabled {
		return NewMemoryCache()
	}
	return NewLayeredCache(NewRedisCache(cfg, log), log)
}
