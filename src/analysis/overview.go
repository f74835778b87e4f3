package analysis

import (
	"math"
	"sort"

	"mse-observer/src/analysis/core"
	"mse-observer/src/models"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------

// BuildOverview ranks a snapshot into gainers, losers and most active lists of
// at most topN entries each, plus a summary.
func BuildOverview(snapshot models.MSnapshot, topN int) models.MMarketOverview {
	if topN <= 0 {
		topN = 5
	}

	var gainers, losers, active []models.MStockRecord
	summary := models.MMarketSummary{}
	changes := make([]float64, 0, len(snapshot.Stocks))

	for _, s := range snapshot.Stocks {
		if s.InstrumentType == models.InstrumentBond {
			summary.TotalBonds++
		} else {
			summary.TotalStocks++
		}
		switch {
		case s.ChangePercent > 0:
			summary.Gainers++
			gainers = append(gainers, s)
		case s.ChangePercent < 0:
			summary.Losers++
			losers = append(losers, s)
		default:
			summary.Unchanged++
		}
		if s.Volume > 0 {
			active = append(active, s)
		}
		summary.TotalVolume += s.Volume
		changes = append(changes, s.ChangePercent)
	}

	mean, _ := core.CalculateMeanStd(changes)
	summary.AverageChange = round2(mean)

	sort.SliceStable(gainers, func(i, j int) bool { return gainers[i].ChangePercent > gainers[j].ChangePercent })
	sort.SliceStable(losers, func(i, j int) bool { return losers[i].ChangePercent < losers[j].ChangePercent })
	sort.SliceStable(active, func(i, j int) bool { return active[i].Volume > active[j].Volume })

	return models.MMarketOverview{
		TopGainers: head(gainers, topN),
		TopLosers:  head(losers, topN),
		MostActive: head(active, topN),
		Summary:    summary,
		Source:     snapshot.Tier,
	}
}

// -----------------------------------------------------------------------------

// HistorySummary describes a symbol's history window.
type HistorySummary struct {
	core.OHLCV
	Points        int     `json:"points"`
	ChangePercent float64 `json:"changePercent"`
	Volatility    float64 `json:"volatility"`
}

// SummarizeHistory computes OHLCV, the period change and the standard
// deviation of point-to-point returns. points must be oldest first.
func SummarizeHistory(points []models.MHistoricalPricePoint) HistorySummary {
	if len(points) == 0 {
		return HistorySummary{}
	}

	prices := make([]float64, len(points))
	volumes := make([]int64, len(points))
	for i, p := range points {
		prices[i] = p.Price
		volumes[i] = p.Volume
	}

	ohlcv := core.ComputeOHLCV(prices, volumes)
	_, std := core.CalculateMeanStd(core.CalculateReturns(prices))

	return HistorySummary{
		OHLCV:         ohlcv,
		Points:        len(points),
		ChangePercent: round2(core.CalculateChangePercent(ohlcv.Close, ohlcv.Open)),
		Volatility:    round2(std),
	}
}

// -----------------------------------------------------------------------------

func head(records []models.MStockRecord, n int) []models.MStockRecord {
	if len(records) > n {
		records = records[:n]
	}
	out := make([]models.MStockRecord, len(records))
	copy(out, records)
	return out
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
