package models

import "time"

// Tier tags attached to every snapshot so consumers can see where data came from.
const (
	TierLive             = "live"
	TierDatabase         = "database"
	TierCached           = "cached"
	TierCachedRefreshing = "cached-refreshing"
	TierMock             = "mock"
)

// -----------------------------------------------------------------------------
// Snapshot returned by the fallback chain
// -----------------------------------------------------------------------------

type MSnapshot struct {
	Stocks      []MStockRecord `json:"stocks"`
	Tier        string         `json:"source"`
	Stale       bool           `json:"stale"`
	LastUpdated time.Time      `json:"lastUpdated"`
	GeneratedAt time.Time      `json:"generatedAt"`
	Warnings    []string       `json:"warnings,omitempty"`
}

// -----------------------------------------------------------------------------
// Per-tier availability, surfaced by the health endpoints
// -----------------------------------------------------------------------------

type MTierStatus struct {
	Tier          string    `json:"tier"`
	Available     bool      `json:"available"`
	LastAttempt   time.Time `json:"lastAttempt"`
	LastSuccess   time.Time `json:"lastSuccess"`
	LastError     string    `json:"lastError,omitempty"`
	LastCount     int       `json:"lastCount"`
	Attempts      int64     `json:"attempts"`
	Successes     int64     `json:"successes"`
	LastLatencyMs int64     `json:"lastLatencyMs"`
}

// -----------------------------------------------------------------------------
// SubscribeCommand for websocket client messages
// -----------------------------------------------------------------------------

type MSubscribeCommand struct {
	Command string   `json:"command"`
	Symbols []string `json:"symbols"`
}

// MSnapshotMessage is pushed to websocket clients.
type MSnapshotMessage struct {
	Type         string        `json:"type"` // "INITIAL" or "UPDATE"
	Snapshot     MSnapshot     `json:"snapshot"`
	MarketStatus MMarketStatus `json:"marketStatus"`
}
