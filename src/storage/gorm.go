package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mse-observer/src/helpers"
	"mse-observer/src/logger"
	"mse-observer/src/models"
	"mse-observer/src/pipeline"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// -----------------------------------------------------------------------------
// Row types managed by AutoMigrate
// -----------------------------------------------------------------------------

type stockRow struct {
	Symbol         string          `gorm:"column:symbol;primaryKey;size:16"`
	ID             string          `gorm:"column:id;type:uuid;not null"`
	Name           string          `gorm:"column:name;not null"`
	Price          decimal.Decimal `gorm:"column:price;type:numeric;not null"`
	PriceChange    decimal.Decimal `gorm:"column:price_change;type:numeric;not null"`
	ChangePercent  decimal.Decimal `gorm:"column:change_percent;type:numeric;not null"`
	Volume         int64           `gorm:"column:volume;not null;default:0"`
	InstrumentType string          `gorm:"column:instrument_type;size:8;not null"`
	LastUpdated    time.Time       `gorm:"column:last_updated;not null"`
}

func (stockRow) TableName(namer schema.Namer) string { return namer.TableName("stocks") }

type historyRow struct {
	Symbol        string          `gorm:"column:symbol;primaryKey;size:16"`
	Timestamp     time.Time       `gorm:"column:ts;primaryKey"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric;not null"`
	PriceChange   decimal.Decimal `gorm:"column:price_change;type:numeric;not null"`
	ChangePercent decimal.Decimal `gorm:"column:change_percent;type:numeric;not null"`
	Volume        int64           `gorm:"column:volume;not null;default:0"`
	TradingDate   string          `gorm:"column:trading_date;size:10;index"`
}

func (historyRow) TableName(namer schema.Namer) string { return namer.TableName("historical_prices") }

type scrapeLogRow struct {
	ID          string    `gorm:"column:id;type:uuid;primaryKey"`
	Status      string    `gorm:"column:status;size:16;not null"`
	StocksCount int       `gorm:"column:stocks_count;not null"`
	Errors      string    `gorm:"column:errors"`
	DurationMs  int64     `gorm:"column:duration_ms;not null"`
	Source      string    `gorm:"column:source;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;index"`
}

func (scrapeLogRow) TableName(namer schema.Namer) string { return namer.TableName("scraping_logs") }

// -----------------------------------------------------------------------------

// GormStore is the ORM-backed postgres store. Tables live in the configured
// schema and are created with AutoMigrate.
type GormStore struct {
	DSN    string
	Schema string
	Logger *logger.Logger
	db     *gorm.DB
}

func NewGormStore(cfg *models.MConfig, log *logger.Logger) *GormStore {
	return &GormStore{
		DSN:    cfg.Storage.DBConnectionString,
		Schema: cfg.Storage.Schema,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (g *GormStore) Initialize(ctx context.Context) error {
	db, err := gorm.Open(postgres.Open(g.DSN), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		NamingStrategy: schema.NamingStrategy{TablePrefix: g.Schema + ".", SingularTable: true},
	})
	if err != nil {
		return err
	}
	g.db = db

	if err := db.WithContext(ctx).Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, g.Schema)).Error; err != nil {
		return fmt.Errorf("failed to create schema %s: %w", g.Schema, err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&stockRow{}, &historyRow{}, &scrapeLogRow{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	g.Logger.Info("GormStore initialized successfully (Schema: %s)", g.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (g *GormStore) Ping(ctx context.Context) error {
	if g.db == nil {
		return helpers.NewStoreUnavailable("ping", errors.New("not initialized"))
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return helpers.NewStoreUnavailable("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return helpers.NewStoreUnavailable("ping", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func toStockRow(r models.MStockRecord) stockRow {
	id := r.ID
	if id == "" {
		id = pipeline.RecordID(r.Symbol)
	}
	return stockRow{
		Symbol:         r.Symbol,
		ID:             id,
		Name:           r.Name,
		Price:          decimal.NewFromFloat(r.Price),
		PriceChange:    decimal.NewFromFloat(r.Change),
		ChangePercent:  decimal.NewFromFloat(r.ChangePercent),
		Volume:         r.Volume,
		InstrumentType: string(r.InstrumentType),
		LastUpdated:    r.LastUpdated.UTC(),
	}
}

func (row stockRow) record() models.MStockRecord {
	return models.MStockRecord{
		ID:             row.ID,
		Symbol:         row.Symbol,
		Name:           row.Name,
		Price:          row.Price.InexactFloat64(),
		Change:         row.PriceChange.InexactFloat64(),
		ChangePercent:  row.ChangePercent.InexactFloat64(),
		Volume:         row.Volume,
		InstrumentType: models.InstrumentType(row.InstrumentType),
		LastUpdated:    row.LastUpdated.UTC(),
	}
}

var upsertOnSymbol = clause.OnConflict{
	Columns:   []clause.Column{{Name: "symbol"}},
	UpdateAll: true,
}

// -----------------------------------------------------------------------------

func (g *GormStore) UpsertBySymbol(ctx context.Context, record models.MStockRecord) (models.MStockRecord, error) {
	row := toStockRow(record)
	if err := g.db.WithContext(ctx).Clauses(upsertOnSymbol).Create(&row).Error; err != nil {
		return models.MStockRecord{}, fmt.Errorf("upsert %s: %w", record.Symbol, err)
	}
	return row.record(), nil
}

// -----------------------------------------------------------------------------

func (g *GormStore) UpsertMany(ctx context.Context, records []models.MStockRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]stockRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, toStockRow(r))
	}
	return g.db.WithContext(ctx).Clauses(upsertOnSymbol).CreateInBatches(rows, 200).Error
}

// -----------------------------------------------------------------------------

func (g *GormStore) GetAll(ctx context.Context) ([]models.MStockRecord, error) {
	var rows []stockRow
	if err := g.db.WithContext(ctx).Order("symbol ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.MStockRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.record())
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func (g *GormStore) GetBySymbol(ctx context.Context, symbol string) (*models.MStockRecord, error) {
	var row stockRow
	err := g.db.WithContext(ctx).Where("symbol = ?", strings.ToUpper(symbol)).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec := row.record()
	return &rec, nil
}

// -----------------------------------------------------------------------------

func (g *GormStore) AppendHistory(ctx context.Context, points []models.MHistoricalPricePoint) error {
	if len(points) == 0 {
		return nil
	}
	rows := make([]historyRow, 0, len(points))
	for _, p := range points {
		rows = append(rows, historyRow{
			Symbol:        p.Symbol,
			Timestamp:     p.Timestamp.UTC(),
			Price:         decimal.NewFromFloat(p.Price),
			PriceChange:   decimal.NewFromFloat(p.Change),
			ChangePercent: decimal.NewFromFloat(p.ChangePercent),
			Volume:        p.Volume,
			TradingDate:   p.TradingDate,
		})
	}
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, 500).Error
}

// -----------------------------------------------------------------------------

func (g *GormStore) GetHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.MHistoricalPricePoint, error) {
	var rows []historyRow
	err := g.db.WithContext(ctx).
		Where("symbol = ? AND ts BETWEEN ? AND ?", strings.ToUpper(symbol), from.UTC(), to.UTC()).
		Order("ts ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.MHistoricalPricePoint, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.MHistoricalPricePoint{
			Symbol:        row.Symbol,
			Price:         row.Price.InexactFloat64(),
			Change:        row.PriceChange.InexactFloat64(),
			ChangePercent: row.ChangePercent.InexactFloat64(),
			Volume:        row.Volume,
			Timestamp:     row.Timestamp.UTC(),
			TradingDate:   row.TradingDate,
		})
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func (g *GormStore) LogScrape(ctx context.Context, entry models.MScrapeLog) error {
	row := scrapeLogRow{
		ID:          entry.ID,
		Status:      entry.Status,
		StocksCount: entry.StocksCount,
		Errors:      strings.Join(entry.Errors, "\n"),
		DurationMs:  entry.DurationMs,
		Source:      entry.Source,
		CreatedAt:   entry.CreatedAt.UTC(),
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return g.db.WithContext(ctx).Create(&row).Error
}

// -----------------------------------------------------------------------------

func (g *GormStore) GetScrapeStats(ctx context.Context) (models.MScrapeStats, error) {
	var res struct {
		Total   int64
		Success int64
		Failed  int64
		LastRun *time.Time
	}
	err := g.db.WithContext(ctx).Model(&scrapeLogRow{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS success,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS failed,
			MAX(created_at) AS last_run`, models.ScrapeStatusSuccess, models.ScrapeStatusError).
		Scan(&res).Error
	if err != nil {
		return models.MScrapeStats{}, err
	}
	return models.MScrapeStats{
		TotalRuns:      res.Total,
		SuccessfulRuns: res.Success,
		ErrorRuns:      res.Failed,
		LastRun:        res.LastRun,
	}, nil
}

// -----------------------------------------------------------------------------

func (g *GormStore) Close() error {
	if g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
