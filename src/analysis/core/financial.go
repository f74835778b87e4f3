package core

import "math"

// OHLCV summarises a price/volume series.
type OHLCV struct {
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   int64   `json:"volume"`
	AvgPrice float64 `json:"avgPrice"`
}

// -----------------------------------------------------------------------------

// ComputeOHLCV calculates OHLCV and AvgPrice from price/volume arrays of equal length.
func ComputeOHLCV(prices []float64, volumes []int64) OHLCV {
	if len(prices) == 0 {
		return OHLCV{}
	}

	out := OHLCV{
		Open:  prices[0],
		Close: prices[len(prices)-1],
		High:  -1.0,
		Low:   math.MaxFloat64,
	}
	sumPrice := 0.0

	for i, p := range prices {
		if p > out.High {
			out.High = p
		}
		if p < out.Low {
			out.Low = p
		}
		if i < len(volumes) {
			out.Volume += volumes[i]
		}
		sumPrice += p
	}

	out.AvgPrice = sumPrice / float64(len(prices))
	return out
}

// -----------------------------------------------------------------------------

// CalculateChangePercent returns (current-previous)/previous as a percentage.
func CalculateChangePercent(current, previous float64) float64 {
	if previous == 0 {
		return 0.0
	}
	return (current - previous) / previous * 100
}
