package storage

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"mse-observer/src/helpers"
	"mse-observer/src/logger"
	"mse-observer/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	cfg := &models.MConfig{Storage: models.MStorageConfig{DBType: "sqlite", DBPath: filepath.Join(t.TempDir(), "mse.db")}}
	s := NewSQLiteStore(cfg, logger.NewWithWriter(io.Discard, "store", logger.LevelError))
	require.NoError(t, s.Initialize(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func record(sym string, price, cp float64, vol int64, at time.Time) models.MStockRecord {
	return models.MStockRecord{
		Symbol:         sym,
		Name:           sym + " AD",
		Price:          price,
		Change:         price - price/(1+cp/100),
		ChangePercent:  cp,
		Volume:         vol,
		InstrumentType: models.InstrumentStock,
		LastUpdated:    at,
	}
}

func TestSQLiteStore_UpsertAndRead(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	at := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)

	stored, err := s.UpsertBySymbol(ctx, record("ALK", 25901.8, -0.07, 46, at))
	require.NoError(t, err)
	assert.Equal(t, "ALK", stored.Symbol)
	assert.NotEmpty(t, stored.ID)
	assert.InDelta(t, 25901.8, stored.Price, 1e-9)
	assert.True(t, at.Equal(stored.LastUpdated))

	_, err = s.UpsertBySymbol(ctx, record("ALK", 26000, 0.38, 50, at.Add(time.Minute)))
	require.NoError(t, err)

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.InDelta(t, 26000.0, all[0].Price, 1e-9)
	assert.Equal(t, int64(50), all[0].Volume)
}

func TestSQLiteStore_GetBySymbolMissing(t *testing.T) {
	got, err := newTestStore(t).GetBySymbol(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_UpsertManySorted(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, s.UpsertMany(ctx, []models.MStockRecord{
		record("TEL", 310, 0.5, 900, now),
		record("ALK", 25901.8, -0.07, 46, now),
		record("KMB", 27200, 1.12, 10, now),
	}))

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"ALK", "KMB", "TEL"}, []string{all[0].Symbol, all[1].Symbol, all[2].Symbol})
}

func TestSQLiteStore_HistoryIsAppendOnly(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC)

	points := []models.MHistoricalPricePoint{
		{Symbol: "ALK", Price: 25000, Volume: 10, Timestamp: base, TradingDate: "2025-03-03"},
		{Symbol: "ALK", Price: 25100, Volume: 12, Timestamp: base.AddDate(0, 0, 1), TradingDate: "2025-03-04"},
		{Symbol: "KMB", Price: 27000, Volume: 3, Timestamp: base, TradingDate: "2025-03-03"},
	}
	require.NoError(t, s.AppendHistory(ctx, points))

	dup := points[0]
	dup.Price = 1
	require.NoError(t, s.AppendHistory(ctx, []models.MHistoricalPricePoint{dup}))

	got, err := s.GetHistory(ctx, "alk", base.Add(-time.Hour), base.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 25000.0, got[0].Price, 1e-9)
	assert.Equal(t, "2025-03-04", got[1].TradingDate)
	assert.True(t, got[0].Timestamp.Before(got[1].Timestamp))
}

func TestSQLiteStore_ScrapeStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	stats, err := s.GetScrapeStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalRuns)
	assert.Nil(t, stats.LastRun)

	require.NoError(t, s.LogScrape(ctx, models.MScrapeLog{Status: models.ScrapeStatusSuccess, StocksCount: 30, Source: "mse-live"}))
	require.NoError(t, s.LogScrape(ctx, models.MScrapeLog{Status: models.ScrapeStatusError, Errors: []string{"timeout"}, Source: "mse-live"}))
	require.NoError(t, s.LogScrape(ctx, models.MScrapeLog{Status: models.ScrapeStatusPartial, StocksCount: 12, Source: "mse-live"}))

	stats, err = s.GetScrapeStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalRuns)
	assert.Equal(t, int64(1), stats.SuccessfulRuns)
	assert.Equal(t, int64(1), stats.ErrorRuns)
	assert.NotNil(t, stats.LastRun)
}

func TestSQLiteStore_PingAfterClose(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())

	err := s.Ping(context.Background())
	assert.True(t, helpers.IsStoreUnavailable(err))
}

func TestPostgresStore_Rebind(t *testing.T) {
	s := NewPostgresStore(&models.MConfig{Storage: models.MStorageConfig{Schema: "mse"}}, nil)
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", s.rebind("SELECT * FROM t WHERE a = ? AND b = ?"))
	assert.Equal(t, `"mse"."stocks"`, s.table("stocks"))
}

func TestNew_SelectsBackend(t *testing.T) {
	cfg := &models.MConfig{Storage: models.MStorageConfig{DBType: "none"}}
	s, err := New(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, s)

	cfg.Storage.DBType = "gorm"
	s, err = New(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &GormStore{}, s)

	cfg.Storage.DBType = "mongo"
	_, err = New(cfg, nil)
	assert.Error(t, err)
}
