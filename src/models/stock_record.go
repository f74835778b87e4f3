package models

import "time"

// InstrumentType distinguishes equities from debt instruments listed on MSE.
type InstrumentType string

const (
	InstrumentStock InstrumentType = "stock"
	InstrumentBond  InstrumentType = "bond"
)

// MRawQuote is a parsed but not yet validated listing row.
type MRawQuote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	ChangePercent float64   `json:"changePercent"`
	Volume        int64     `json:"volume"`
	ObservedAt    time.Time `json:"observedAt"`
}

// MStockRecord is the canonical, validated quote served to consumers.
type MStockRecord struct {
	ID             string         `json:"id"`
	Symbol         string         `json:"symbol"`
	Name           string         `json:"name"`
	Price          float64        `json:"price"`
	Change         float64        `json:"change"`
	ChangePercent  float64        `json:"changePercent"`
	Volume         int64          `json:"volume"`
	InstrumentType InstrumentType `json:"instrumentType"`
	LastUpdated    time.Time      `json:"lastUpdated"`
}

// MStockDetail extends a record with catalog metadata for the detail endpoint.
type MStockDetail struct {
	MStockRecord
	Sector      string `json:"sector,omitempty"`
	ISIN        string `json:"isin"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}
