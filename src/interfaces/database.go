package interfaces

import (
	"context"
	"time"

	"mse-observer/src/models"
)

// -----------------------------------------------------------------------------
// IStockStore defines the contract for durable storage of quotes and history.
// -----------------------------------------------------------------------------

type IStockStore interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize(ctx context.Context) error

	// -----------------------------------------------------------------------------

	// Ping reports connectivity.
	Ping(ctx context.Context) error

	// -----------------------------------------------------------------------------

	// UpsertBySymbol inserts or replaces the current quote for a symbol.
	UpsertBySymbol(ctx context.Context, record models.MStockRecord) (models.MStockRecord, error)

	// -----------------------------------------------------------------------------

	// UpsertMany upserts a batch in one transaction.
	UpsertMany(ctx context.Context, records []models.MStockRecord) error

	// -----------------------------------------------------------------------------

	// GetAll returns every stored quote sorted by symbol.
	GetAll(ctx context.Context) ([]models.MStockRecord, error)

	// -----------------------------------------------------------------------------

	// GetBySymbol returns nil, nil when the symbol is unknown.
	GetBySymbol(ctx context.Context, symbol string) (*models.MStockRecord, error)

	// -----------------------------------------------------------------------------

	// AppendHistory writes history points; existing points are never updated.
	AppendHistory(ctx context.Context, points []models.MHistoricalPricePoint) error

	// -----------------------------------------------------------------------------

	// GetHistory returns points for symbol in [from, to], oldest first.
	GetHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.MHistoricalPricePoint, error)

	// -----------------------------------------------------------------------------

	// LogScrape records a live scrape attempt.
	LogScrape(ctx context.Context, entry models.MScrapeLog) error

	// -----------------------------------------------------------------------------

	// GetScrapeStats summarizes the scrape log.
	GetScrapeStats(ctx context.Context) (models.MScrapeStats, error)

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
