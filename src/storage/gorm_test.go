package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"mse-observer/src/helpers"
	"mse-observer/src/logger"
	"mse-observer/src/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newGormTestStore migrates into a throwaway schema that is dropped on cleanup.
func newGormTestStore(t *testing.T) *GormStore {
	t.Helper()
	dsn := os.Getenv("MSE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MSE_TEST_POSTGRES_DSN not set")
	}
	schemaName := "mse_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	cfg := &models.MConfig{Storage: models.MStorageConfig{DBType: "gorm", DBConnectionString: dsn, Schema: schemaName}}
	g := NewGormStore(cfg, logger.NewWithWriter(io.Discard, "gorm", logger.LevelError))
	require.NoError(t, g.Initialize(context.Background()))
	t.Cleanup(func() {
		g.db.Exec(fmt.Sprintf(`DROP SCHEMA IF EXISTS "%s" CASCADE`, schemaName))
		g.Close()
	})
	return g
}

func TestGormStore_PingBeforeInitialize(t *testing.T) {
	g := NewGormStore(&models.MConfig{}, logger.NewWithWriter(io.Discard, "gorm", logger.LevelError))
	assert.True(t, helpers.IsStoreUnavailable(g.Ping(context.Background())))
	assert.NoError(t, g.Close())
}

func TestGormStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	g := newGormTestStore(t)
	require.NoError(t, g.Ping(ctx))
	at := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)

	stored, err := g.UpsertBySymbol(ctx, record("ALK", 25901.8, -0.07, 46, at))
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)

	require.NoError(t, g.UpsertMany(ctx, []models.MStockRecord{
		record("TEL", 310, 0.5, 900, at),
		record("ALK", 26000, 0.38, 50, at.Add(time.Minute)),
		record("KMB", 27200, 1.12, 10, at),
	}))

	all, err := g.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"ALK", "KMB", "TEL"}, []string{all[0].Symbol, all[1].Symbol, all[2].Symbol})
	assert.InDelta(t, 26000.0, all[0].Price, 1e-9)
	assert.Equal(t, int64(50), all[0].Volume)
	assert.True(t, at.Add(time.Minute).Equal(all[0].LastUpdated))

	one, err := g.GetBySymbol(ctx, "kmb")
	require.NoError(t, err)
	require.NotNil(t, one)
	assert.InDelta(t, 1.12, one.ChangePercent, 1e-9)

	missing, err := g.GetBySymbol(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGormStore_HistoryAndScrapeLog(t *testing.T) {
	ctx := context.Background()
	g := newGormTestStore(t)
	base := time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC)

	points := []models.MHistoricalPricePoint{
		{Symbol: "ALK", Price: 25000, Volume: 10, Timestamp: base, TradingDate: "2025-03-03"},
		{Symbol: "ALK", Price: 25100, Volume: 12, Timestamp: base.AddDate(0, 0, 1), TradingDate: "2025-03-04"},
	}
	require.NoError(t, g.AppendHistory(ctx, points))
	dup := points[0]
	dup.Price = 1
	require.NoError(t, g.AppendHistory(ctx, []models.MHistoricalPricePoint{dup}))

	got, err := g.GetHistory(ctx, "alk", base.Add(-time.Hour), base.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 25000.0, got[0].Price, 1e-9)
	assert.Equal(t, "2025-03-04", got[1].TradingDate)

	require.NoError(t, g.LogScrape(ctx, models.MScrapeLog{Status: models.ScrapeStatusSuccess, StocksCount: 30, Source: "mse-live"}))
	require.NoError(t, g.LogScrape(ctx, models.MScrapeLog{Status: models.ScrapeStatusError, Errors: []string{"timeout"}, Source: "mse-live"}))

	stats, err := g.GetScrapeStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalRuns)
	assert.Equal(t, int64(1), stats.SuccessfulRuns)
	assert.Equal(t, int64(1), stats.ErrorRuns)
	assert.NotNil(t, stats.LastRun)
}
