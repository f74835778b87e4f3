package models

import "time"

// Scrape run outcomes.
const (
	ScrapeStatusSuccess = "success"
	ScrapeStatusPartial = "partial"
	ScrapeStatusError   = "error"
)

// MScrapeLog records one live scrape attempt.
type MScrapeLog struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	StocksCount int       `json:"stocksCount"`
	Errors      []string  `json:"errors,omitempty"`
	DurationMs  int64     `json:"durationMs"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MScrapeStats summarizes the scrape log.
type MScrapeStats struct {
	TotalRuns      int64      `json:"totalRuns"`
	SuccessfulRuns int64      `json:"successfulRuns"`
	ErrorRuns      int64      `json:"errorRuns"`
	LastRun        *time.Time `json:"lastRun,omitempty"`
}

// MScrapeResult is the outcome of one live scrape pass.
type MScrapeResult struct {
	Records  []MStockRecord `json:"stocks"`
	Rejected []string       `json:"rejected,omitempty"`
	Enriched int            `json:"enriched"`
	Duration time.Duration  `json:"-"`
}
