// Package enrichment fills in missing volume figures from per-symbol detail
// pages. It is best effort: a failed page leaves the record untouched.
package enrichment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mse-observer/src/interfaces"
	"mse-observer/src/logger"
	"mse-observer/src/models"

	"golang.org/x/sync/errgroup"
)

// Stats reports what an enrichment pass did.
type Stats struct {
	Attempted int
	Enriched  int
	Failed    int
	Skipped   int
}

// VolumeEnricher visits detail pages in fixed-size batches.
type VolumeEnricher struct {
	Navigator   interfaces.IPageNavigator
	Policy      VolumePolicy
	DetailURL   func(symbol string) string
	BatchSize   int
	PageTimeout time.Duration
	BatchDelay  time.Duration
	Logger      *logger.Logger
}

func NewVolumeEnricher(nav interfaces.IPageNavigator, cfg models.MEnrichmentConfig, detailTemplate string, log *logger.Logger) *VolumeEnricher {
	return &VolumeEnricher{
		Navigator:   nav,
		Policy:      NewSmallestPlausible(DefaultLabels, cfg.MinVolume, cfg.MaxVolume),
		DetailURL:   func(symbol string) string { return fmt.Sprintf(detailTemplate, symbol) },
		BatchSize:   cfg.BatchSize,
		PageTimeout: time.Duration(cfg.PageTimeoutSecs) * time.Second,
		BatchDelay:  time.Duration(cfg.BatchDelayMillis) * time.Millisecond,
		Logger:      log,
	}
}

// -----------------------------------------------------------------------------

// Enrich returns a copy of records where zero volumes have been looked up.
// Records that already carry a volume are never visited.
func (e *VolumeEnricher) Enrich(ctx context.Context, records []models.MStockRecord) ([]models.MStockRecord, Stats) {
	out := make([]models.MStockRecord, len(records))
	copy(out, records)

	var pending []int
	for i, r := range out {
		if r.Volume == 0 {
			pending = append(pending, i)
		}
	}

	stats := Stats{}
	if len(pending) == 0 {
		return out, stats
	}

	batchSize := e.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}

	var mu sync.Mutex
	for start := 0; start < len(pending); start += batchSize {
		if ctx.Err() != nil {
			stats.Skipped += len(pending) - start
			break
		}
		if start > 0 && e.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				stats.Skipped += len(pending) - start
				return out, stats
			case <-time.After(e.BatchDelay):
			}
		}

		end := min(start+batchSize, len(pending))
		var g errgroup.Group
		g.SetLimit(batchSize)

		for _, idx := range pending[start:end] {
			g.Go(func() error {
				volume, err := e.lookup(ctx, out[idx].Symbol)

				mu.Lock()
				defer mu.Unlock()
				stats.Attempted++
				switch {
				case err != nil:
					stats.Failed++
					e.Logger.Debug("Volume lookup for %s failed: %v", out[idx].Symbol, err)
				case volume > 0:
					stats.Enriched++
					out[idx].Volume = volume
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	e.Logger.Info("Volume enrichment: %d attempted, %d enriched, %d failed, %d skipped",
		stats.Attempted, stats.Enriched, stats.Failed, stats.Skipped)
	return out, stats
}

// -----------------------------------------------------------------------------

func (e *VolumeEnricher) lookup(ctx context.Context, symbol string) (int64, error) {
	pageCtx := ctx
	if e.PageTimeout > 0 {
		var cancel context.CancelFunc
		pageCtx, cancel = context.WithTimeout(ctx, e.PageTimeout)
		defer cancel()
	}

	text, err := e.Navigator.FetchPageText(pageCtx, e.DetailURL(symbol))
	if err != nil {
		return 0, err
	}
	return e.Policy.Select(text), nil
}
