package models

import "time"

// MHistoricalPricePoint is an append-only observation of one symbol.
type MHistoricalPricePoint struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Volume        int64     `json:"volume"`
	Timestamp     time.Time `json:"timestamp"`
	TradingDate   string    `json:"tradingDate"` // YYYY-MM-DD, exchange local time
}
