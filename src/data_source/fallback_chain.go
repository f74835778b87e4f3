// Package datasource coordinates the tiers that can answer "what are the
// current MSE quotes": live scrape, durable store, cache and synthetic data.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"mse-observer/src/helpers"
	"mse-observer/src/interfaces"
	"mse-observer/src/logger"
	"mse-observer/src/models"
	"mse-observer/src/pipeline"
	"mse-observer/src/utils"

	"golang.org/x/sync/singleflight"
)

// Tier order used for status reporting.
var tierOrder = []string{models.TierLive, models.TierDatabase, models.TierCached, models.TierMock}

// FallbackChain implements interfaces.ISnapshotProvider. Snapshot never fails:
// when every real tier is down the synthetic generator answers, and the Tier
// field always says which tier produced the data.
type FallbackChain struct {
	Live      interfaces.ILiveSource
	Store     interfaces.IStockStore
	Cache     interfaces.ISnapshotCache
	Synthetic interfaces.ISyntheticSource
	History   *utils.MemoryManager
	Config    models.MChainConfig
	Logger    *logger.Logger
	Now       func() time.Time

	// OnTierStatus is called after every tier attempt.
	OnTierStatus func(models.MTierStatus)

	group      singleflight.Group
	refreshing atomic.Bool

	mu       sync.Mutex
	statuses map[string]*models.MTierStatus
	last     *models.MSnapshot
	lastAt   time.Time
}

// -----------------------------------------------------------------------------

func NewFallbackChain(live interfaces.ILiveSource, store interfaces.IStockStore, cache interfaces.ISnapshotCache,
	synthetic interfaces.ISyntheticSource, cfg models.MChainConfig, log *logger.Logger) *FallbackChain {
	c := &FallbackChain{
		Live:      live,
		Store:     store,
		Cache:     cache,
		Synthetic: synthetic,
		Config:    cfg,
		Logger:    log,
		Now:       time.Now,
		statuses:  make(map[string]*models.MTierStatus),
	}
	for _, tier := range tierOrder {
		c.statuses[tier] = &models.MTierStatus{Tier: tier}
	}
	return c
}

// -----------------------------------------------------------------------------

// Snapshot returns the current quotes. A result accepted less than
// FreshForSeconds ago is served without touching any tier. An older one is
// served while a single background refresh runs, if StaleWhileRevalidate is on.
func (c *FallbackChain) Snapshot(ctx context.Context) models.MSnapshot {
	c.mu.Lock()
	last, lastAt := c.last, c.lastAt
	c.mu.Unlock()

	if last != nil {
		age := c.Now().Sub(lastAt)
		fresh := time.Duration(c.Config.FreshForSeconds) * time.Second
		if age < fresh {
			return servedFromMemory(*last, models.TierCached)
		}
		if c.Config.StaleWhileRevalidate {
			c.refreshInBackground(ctx)
			snap := servedFromMemory(*last, models.TierCachedRefreshing)
			snap.Warnings = append(snap.Warnings, "refresh in progress")
			return snap
		}
	}
	return c.Refresh(ctx)
}

// -----------------------------------------------------------------------------

// Refresh runs the tiers now. Concurrent callers share one run.
func (c *FallbackChain) Refresh(ctx context.Context) models.MSnapshot {
	v, _, _ := c.group.Do("snapshot", func() (any, error) {
		return c.run(context.WithoutCancel(ctx)), nil
	})
	return cloneSnapshot(v.(models.MSnapshot))
}

// -----------------------------------------------------------------------------

func (c *FallbackChain) refreshInBackground(ctx context.Context) {
	if !c.refreshing.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer c.refreshing.Store(false)
		c.Refresh(context.WithoutCancel(ctx))
	}()
}

// -----------------------------------------------------------------------------

func (c *FallbackChain) run(ctx context.Context) models.MSnapshot {
	var warnings []string

	if snap, err := c.tryLive(ctx); err == nil {
		return c.accept(snap)
	} else if !errors.Is(err, errTierSkipped) {
		warnings = append(warnings, fmt.Sprintf("live scrape unavailable: %v", err))
	}

	if snap, err := c.tryStore(ctx); err == nil {
		snap.Warnings = append(warnings, snap.Warnings...)
		return c.accept(snap)
	} else if !errors.Is(err, errTierSkipped) {
		warnings = append(warnings, fmt.Sprintf("database unavailable: %v", err))
	}

	if snap, err := c.tryCache(ctx); err == nil {
		snap.Warnings = append(warnings, snap.Warnings...)
		return c.accept(snap)
	}

	snap := c.synthetic()
	snap.Warnings = append(warnings, "showing synthetic data")
	return c.accept(snap)
}

// -----------------------------------------------------------------------------

var errTierSkipped = errors.New("tier not configured")

func (c *FallbackChain) tryLive(ctx context.Context) (models.MSnapshot, error) {
	if c.Live == nil {
		return models.MSnapshot{}, errTierSkipped
	}

	start := c.Now()
	res, err := c.Live.Scrape(ctx)
	if err == nil && len(res.Records) == 0 {
		err = helpers.ErrEmptyResult
	}
	c.record(models.TierLive, start, len(res.Records), err)
	c.logScrape(ctx, res, err)

	if err != nil {
		c.Logger.Warning("Live tier unavailable: %v", err)
		return models.MSnapshot{}, err
	}

	snap := c.newSnapshot(models.TierLive, res.Records)
	if len(res.Rejected) > 0 {
		snap.Warnings = append(snap.Warnings, fmt.Sprintf("%d rows rejected", len(res.Rejected)))
	}
	c.persist(ctx, snap)
	return snap, nil
}

// -----------------------------------------------------------------------------

func (c *FallbackChain) tryStore(ctx context.Context) (models.MSnapshot, error) {
	if c.Store == nil {
		return models.MSnapshot{}, errTierSkipped
	}

	start := c.Now()
	if err := c.Store.Ping(ctx); err != nil {
		c.record(models.TierDatabase, start, 0, err)
		return models.MSnapshot{}, err
	}

	records, err := c.Store.GetAll(ctx)
	if err == nil && len(records) == 0 {
		err = helpers.ErrEmptyResult
	}
	c.record(models.TierDatabase, start, len(records), err)
	if err != nil {
		return models.MSnapshot{}, err
	}

	snap := c.newSnapshot(models.TierDatabase, records)
	staleAfter := time.Duration(c.Config.StaleAfterMinutes) * time.Minute
	if staleAfter > 0 && c.Now().Sub(snap.LastUpdated) > staleAfter {
		snap.Stale = true
		snap.Warnings = append(snap.Warnings, fmt.Sprintf("database data from %s", snap.LastUpdated.Format(time.RFC3339)))
	}
	return snap, nil
}

// -----------------------------------------------------------------------------

func (c *FallbackChain) tryCache(ctx context.Context) (models.MSnapshot, error) {
	start := c.Now()
	if c.Cache == nil {
		return models.MSnapshot{}, errTierSkipped
	}

	cached, ok := c.Cache.Get(ctx)
	if !ok || len(cached.Stocks) == 0 {
		c.record(models.TierCached, start, 0, helpers.ErrEmptyResult)
		return models.MSnapshot{}, helpers.ErrEmptyResult
	}
	c.record(models.TierCached, start, len(cached.Stocks), nil)

	snap := c.newSnapshot(models.TierCached, cached.Stocks)
	if !cached.LastUpdated.IsZero() {
		snap.LastUpdated = cached.LastUpdated
	}
	snap.Stale = true
	snap.Warnings = []string{fmt.Sprintf("showing cached data from %s", snap.LastUpdated.Format(time.RFC3339))}
	return snap, nil
}

// -----------------------------------------------------------------------------

func (c *FallbackChain) synthetic() models.MSnapshot {
	start := c.Now()
	records := c.Synthetic.Generate(start)
	if len(records) == 0 {
		err := &helpers.ChainExhaustedError{ObserverError: helpers.ObserverError{Message: "synthetic generator returned no records"}}
		c.record(models.TierMock, start, 0, err)
		panic(err)
	}
	c.record(models.TierMock, start, len(records), nil)
	return c.newSnapshot(models.TierMock, records)
}

// -----------------------------------------------------------------------------

// persist writes an accepted live result to every downstream holder. Failures
// are logged; the live result is still served.
func (c *FallbackChain) persist(ctx context.Context, snap models.MSnapshot) {
	points := utils.PointsFromRecords(snap.Stocks)

	if c.Store != nil {
		if err := c.Store.UpsertMany(ctx, snap.Stocks); err != nil {
			c.Logger.Warning("Persisting quotes failed: %v", err)
		} else if err := c.Store.AppendHistory(ctx, points); err != nil {
			c.Logger.Warning("Appending history failed: %v", err)
		}
	}
	if c.History != nil {
		c.History.AddPoints(points)
	}
	if c.Cache != nil {
		if err := c.Cache.Set(ctx, snap); err != nil {
			c.Logger.Warning("Caching snapshot failed: %v", err)
		}
	}
}

// -----------------------------------------------------------------------------

func (c *FallbackChain) logScrape(ctx context.Context, res models.MScrapeResult, err error) {
	if c.Store == nil {
		return
	}

	entry := models.MScrapeLog{
		Status:      models.ScrapeStatusSuccess,
		StocksCount: len(res.Records),
		Errors:      res.Rejected,
		DurationMs:  res.Duration.Milliseconds(),
		Source:      c.Live.Name(),
		CreatedAt:   c.Now().UTC(),
	}
	switch {
	case err != nil:
		entry.Status = models.ScrapeStatusError
		entry.Errors = append([]string{err.Error()}, res.Rejected...)
	case len(res.Rejected) > 0:
		entry.Status = models.ScrapeStatusPartial
	}

	if logErr := c.Store.LogScrape(ctx, entry); logErr != nil {
		c.Logger.Debug("Scrape log not written: %v", logErr)
	}
}

// -----------------------------------------------------------------------------

func (c *FallbackChain) accept(snap models.MSnapshot) models.MSnapshot {
	c.mu.Lock()
	stored := cloneSnapshot(snap)
	c.last = &stored
	c.lastAt = c.Now()
	c.mu.Unlock()

	c.Logger.Info("Serving %d records from tier %s (stale=%v)", len(snap.Stocks), snap.Tier, snap.Stale)
	return snap
}

// -----------------------------------------------------------------------------

// newSnapshot enforces unique, symbol-ordered stocks whatever the tier
// returned; store and cache ordering is not trusted.
func (c *FallbackChain) newSnapshot(tier string, records []models.MStockRecord) models.MSnapshot {
	records = pipeline.Deduplicate(records)
	snap := models.MSnapshot{
		Stocks:      records,
		Tier:        tier,
		GeneratedAt: c.Now().UTC(),
	}
	for _, r := range records {
		if r.LastUpdated.After(snap.LastUpdated) {
			snap.LastUpdated = r.LastUpdated
		}
	}
	return snap
}

// -----------------------------------------------------------------------------

func (c *FallbackChain) record(tier string, start time.Time, count int, err error) {
	now := c.Now()

	c.mu.Lock()
	st := c.statuses[tier]
	st.Attempts++
	st.LastAttempt = now
	st.LastLatencyMs = now.Sub(start).Milliseconds()
	st.LastCount = count
	if err != nil {
		st.Available = false
		st.LastError = err.Error()
	} else {
		st.Available = true
		st.LastError = ""
		st.LastSuccess = now
		st.Successes++
	}
	copied := *st
	c.mu.Unlock()

	if c.OnTierStatus != nil {
		c.OnTierStatus(copied)
	}
}

// -----------------------------------------------------------------------------

// TierStatuses reports the last known state of every tier in chain order.
func (c *FallbackChain) TierStatuses() []models.MTierStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.MTierStatus, 0, len(tierOrder))
	for _, tier := range tierOrder {
		out = append(out, *c.statuses[tier])
	}
	return out
}

// -----------------------------------------------------------------------------

// servedFromMemory retags a remembered snapshot. Only live data is relabelled;
// database and synthetic results keep their tier so degradation stays visible.
func servedFromMemory(s models.MSnapshot, tier string) models.MSnapshot {
	out := cloneSnapshot(s)
	if s.Tier == models.TierLive {
		out.Tier = tier
	}
	return out
}

func cloneSnapshot(s models.MSnapshot) models.MSnapshot {
	out := s
	out.Stocks = append([]models.MStockRecord(nil), s.Stocks...)
	out.Warnings = append([]string(nil), s.Warnings...)
	return out
}
