package interfaces

import (
	"context"
	"time"

	"mse-observer/src/models"
)

// -----------------------------------------------------------------------------
// ILiveSource produces a fresh, canonical quote list from the exchange.
// -----------------------------------------------------------------------------

type ILiveSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// Scrape returns deduplicated records sorted by symbol, or an error when the
	// tier is unavailable. An empty list is reported as an error. Rows dropped
	// along the way are listed in Rejected.
	Scrape(ctx context.Context) (models.MScrapeResult, error)
}

// -----------------------------------------------------------------------------
// ISnapshotProvider is what the API layer consumes.
// -----------------------------------------------------------------------------

type ISnapshotProvider interface {

	// Snapshot never fails; the Tier field says which fallback produced it.
	Snapshot(ctx context.Context) models.MSnapshot

	// -----------------------------------------------------------------------------

	// TierStatuses reports availability of each fallback tier.
	TierStatuses() []models.MTierStatus
}

// -----------------------------------------------------------------------------
// ISyntheticSource generates deterministic placeholder quotes.
// -----------------------------------------------------------------------------

type ISyntheticSource interface {
	Generate(now time.Time) []models.MStockRecord
}
