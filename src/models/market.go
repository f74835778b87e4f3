package models

// Market session states.
const (
	MarketOpen       = "open"
	MarketClosed     = "closed"
	MarketPreMarket  = "pre-market"
	MarketAfterHours = "after-hours"
)

// MMarketStatus describes the exchange session at a point in time.
type MMarketStatus struct {
	IsOpen    bool   `json:"isOpen"`
	Status    string `json:"status"`
	NextOpen  string `json:"nextOpen"`
	NextClose string `json:"nextClose"`
	Timezone  string `json:"timezone"`
}

// MMarketSummary aggregates a snapshot.
type MMarketSummary struct {
	TotalStocks   int     `json:"totalStocks"`
	TotalBonds    int     `json:"totalBonds"`
	Gainers       int     `json:"gainers"`
	Losers        int     `json:"losers"`
	Unchanged     int     `json:"unchanged"`
	TotalVolume   int64   `json:"totalVolume"`
	AverageChange float64 `json:"averageChange"`
}

// MMarketOverview is the dashboard overview.
type MMarketOverview struct {
	TopGainers []MStockRecord `json:"topGainers"`
	TopLosers  []MStockRecord `json:"topLosers"`
	MostActive []MStockRecord `json:"mostActive"`
	Summary    MMarketSummary `json:"summary"`
	Source     string         `json:"source"`
}
