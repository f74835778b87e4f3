package analysis

import (
	"testing"
	"time"

	"mse-observer/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(sym string, cp float64, vol int64, kind models.InstrumentType) models.MStockRecord {
	return models.MStockRecord{Symbol: sym, Price: 100, ChangePercent: cp, Volume: vol, InstrumentType: kind}
}

func TestBuildOverview(t *testing.T) {
	snap := models.MSnapshot{
		Tier: models.TierLive,
		Stocks: []models.MStockRecord{
			rec("ALK", 1.5, 100, models.InstrumentStock),
			rec("KMB", -2.0, 400, models.InstrumentStock),
			rec("MPT", 3.0, 0, models.InstrumentStock),
			rec("RMDEN21", 0, 50, models.InstrumentBond),
			rec("TEL", -0.5, 900, models.InstrumentStock),
		},
	}

	ov := BuildOverview(snap, 2)

	require.Len(t, ov.TopGainers, 2)
	assert.Equal(t, "MPT", ov.TopGainers[0].Symbol)
	assert.Equal(t, "ALK", ov.TopGainers[1].Symbol)

	require.Len(t, ov.TopLosers, 2)
	assert.Equal(t, "KMB", ov.TopLosers[0].Symbol)
	assert.Equal(t, "TEL", ov.TopLosers[1].Symbol)

	require.Len(t, ov.MostActive, 2)
	assert.Equal(t, "TEL", ov.MostActive[0].Symbol)
	assert.Equal(t, "KMB", ov.MostActive[1].Symbol)

	assert.Equal(t, 4, ov.Summary.TotalStocks)
	assert.Equal(t, 1, ov.Summary.TotalBonds)
	assert.Equal(t, 2, ov.Summary.Gainers)
	assert.Equal(t, 2, ov.Summary.Losers)
	assert.Equal(t, 1, ov.Summary.Unchanged)
	assert.Equal(t, int64(1450), ov.Summary.TotalVolume)
	assert.InDelta(t, 0.4, ov.Summary.AverageChange, 1e-9)
	assert.Equal(t, models.TierLive, ov.Source)
}

func TestBuildOverview_Empty(t *testing.T) {
	ov := BuildOverview(models.MSnapshot{Tier: models.TierMock}, 0)
	assert.Empty(t, ov.TopGainers)
	assert.Equal(t, 0, ov.Summary.TotalStocks)
}

func TestSummarizeHistory(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := []models.MHistoricalPricePoint{
		{Price: 100, Volume: 10, Timestamp: base},
		{Price: 110, Volume: 20, Timestamp: base.Add(24 * time.Hour)},
		{Price: 99, Volume: 30, Timestamp: base.Add(48 * time.Hour)},
		{Price: 105, Volume: 40, Timestamp: base.Add(72 * time.Hour)},
	}

	s := SummarizeHistory(points)
	assert.Equal(t, 4, s.Points)
	assert.Equal(t, 100.0, s.Open)
	assert.Equal(t, 105.0, s.Close)
	assert.Equal(t, 110.0, s.High)
	assert.Equal(t, 99.0, s.Low)
	assert.Equal(t, int64(100), s.Volume)
	assert.InDelta(t, 103.5, s.AvgPrice, 1e-9)
	assert.InDelta(t, 5.0, s.ChangePercent, 1e-9)
	assert.Greater(t, s.Volatility, 0.0)

	assert.Equal(t, HistorySummary{}, SummarizeHistory(nil))
}
