package datasource

import (
	"context"
	"time"

	"mse-observer/src/interfaces"
	"mse-observer/src/logger"
	"mse-observer/src/models"
	"mse-observer/src/utils"
)

// History sources reported alongside a series.
const (
	HistoryFromDatabase = "database"
	HistoryFromMemory   = "memory"
)

// HistoryService reads price series from the durable store, or from the
// in-process ring when the store is down or holds nothing for the range.
type HistoryService struct {
	Store  interfaces.IStockStore
	Memory *utils.MemoryManager
	Config models.MHistoryConfig
	Logger *logger.Logger
	Now    func() time.Time
}

func NewHistoryService(store interfaces.IStockStore, memory *utils.MemoryManager, cfg models.MHistoryConfig, log *logger.Logger) *HistoryService {
	return &HistoryService{Store: store, Memory: memory, Config: cfg, Logger: log, Now: time.Now}
}

// -----------------------------------------------------------------------------

// ClampDays maps a requested range onto [1, MaxDays]; 0 means DefaultDays.
func (h *HistoryService) ClampDays(days int) int {
	if days == 0 {
		days = h.Config.DefaultDays
	}
	if days < 1 {
		days = 1
	}
	if h.Config.MaxDays > 0 && days > h.Config.MaxDays {
		days = h.Config.MaxDays
	}
	return days
}

// -----------------------------------------------------------------------------

// Get returns the series for symbol over the last days days, oldest first,
// and where it came from.
func (h *HistoryService) Get(ctx context.Context, symbol string, days int) ([]models.MHistoricalPricePoint, string) {
	to := h.Now().UTC()
	from := to.AddDate(0, 0, -h.ClampDays(days))

	if h.Store != nil {
		if err := h.Store.Ping(ctx); err == nil {
			points, err := h.Store.GetHistory(ctx, symbol, from, to)
			if err == nil && len(points) > 0 {
				return points, HistoryFromDatabase
			}
			if err != nil {
				h.Logger.Warning("History query for %s failed: %v", symbol, err)
			}
		}
	}

	if h.Memory == nil {
		return []models.MHistoricalPricePoint{}, HistoryFromMemory
	}
	points := h.Memory.GetHistory(symbol, from, to)
	if points == nil {
		points = []models.MHistoricalPricePoint{}
	}
	return points, HistoryFromMemory
}
