// Package storage implements the durable store behind the database tier.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mse-observer/src/helpers"
	"mse-observer/src/logger"
	"mse-observer/src/models"
	"mse-observer/src/pipeline"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------

// SQLStore holds the queries shared by the sqlite and postgres backends.
// Prices are written as decimal strings; timestamps as unix milliseconds.
type SQLStore struct {
	DB     *sql.DB
	Logger *logger.Logger

	// numbered placeholders ($1, $2, ...) instead of '?'
	numbered bool
	// table returns the qualified name of a logical table
	table func(name string) string
}

// -----------------------------------------------------------------------------

func (s *SQLStore) rebind(query string) string {
	if !s.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// -----------------------------------------------------------------------------

func (s *SQLStore) Ping(ctx context.Context) error {
	if s.DB == nil {
		return helpers.NewStoreUnavailable("ping", errors.New("not initialized"))
	}
	if err := s.DB.PingContext(ctx); err != nil {
		return helpers.NewStoreUnavailable("ping", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *SQLStore) upsertQuery() string {
	return s.rebind(fmt.Sprintf(`
		INSERT INTO %s (symbol, id, name, price, price_change, change_percent, volume, instrument_type, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol) DO UPDATE SET
			id = excluded.id,
			name = excluded.name,
			price = excluded.price,
			price_change = excluded.price_change,
			change_percent = excluded.change_percent,
			volume = excluded.volume,
			instrument_type = excluded.instrument_type,
			last_updated = excluded.last_updated
	`, s.table("stocks")))
}

func stockArgs(r models.MStockRecord) []any {
	if r.ID == "" {
		r.ID = pipeline.RecordID(r.Symbol)
	}
	return []any{
		r.Symbol, r.ID, r.Name,
		decimal.NewFromFloat(r.Price).String(),
		decimal.NewFromFloat(r.Change).String(),
		decimal.NewFromFloat(r.ChangePercent).String(),
		r.Volume, string(r.InstrumentType), r.LastUpdated.UnixMilli(),
	}
}

// -----------------------------------------------------------------------------

func (s *SQLStore) UpsertBySymbol(ctx context.Context, record models.MStockRecord) (models.MStockRecord, error) {
	if _, err := s.DB.ExecContext(ctx, s.upsertQuery(), stockArgs(record)...); err != nil {
		return models.MStockRecord{}, fmt.Errorf("upsert %s: %w", record.Symbol, err)
	}
	stored, err := s.GetBySymbol(ctx, record.Symbol)
	if err != nil {
		return models.MStockRecord{}, err
	}
	if stored == nil {
		return models.MStockRecord{}, fmt.Errorf("upsert %s: row missing after write", record.Symbol)
	}
	return *stored, nil
}

// -----------------------------------------------------------------------------

func (s *SQLStore) UpsertMany(ctx context.Context, records []models.MStockRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.upsertQuery())
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, stockArgs(r)...); err != nil {
			return fmt.Errorf("upsert %s: %w", r.Symbol, err)
		}
	}
	return tx.Commit()
}

// -----------------------------------------------------------------------------

const stockColumns = "symbol, id, name, price, price_change, change_percent, volume, instrument_type, last_updated"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStock(row rowScanner) (models.MStockRecord, error) {
	var (
		r                 models.MStockRecord
		price, change, cp decimal.Decimal
		kind              string
		lastUpdated       int64
	)
	if err := row.Scan(&r.Symbol, &r.ID, &r.Name, &price, &change, &cp, &r.Volume, &kind, &lastUpdated); err != nil {
		return models.MStockRecord{}, err
	}
	r.Price = price.InexactFloat64()
	r.Change = change.InexactFloat64()
	r.ChangePercent = cp.InexactFloat64()
	r.InstrumentType = models.InstrumentType(kind)
	r.LastUpdated = time.UnixMilli(lastUpdated).UTC()
	return r, nil
}

// -----------------------------------------------------------------------------

func (s *SQLStore) GetAll(ctx context.Context) ([]models.MStockRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY symbol ASC", stockColumns, s.table("stocks"))
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MStockRecord
	for rows.Next() {
		r, err := scanStock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------

func (s *SQLStore) GetBySymbol(ctx context.Context, symbol string) (*models.MStockRecord, error) {
	query := s.rebind(fmt.Sprintf("SELECT %s FROM %s WHERE symbol = ?", stockColumns, s.table("stocks")))
	r, err := scanStock(s.DB.QueryRowContext(ctx, query, strings.ToUpper(symbol)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// -----------------------------------------------------------------------------

func (s *SQLStore) AppendHistory(ctx context.Context, points []models.MHistoricalPricePoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.rebind(fmt.Sprintf(`
		INSERT INTO %s (symbol, price, price_change, change_percent, volume, ts, trading_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, ts) DO NOTHING
	`, s.table("historical_prices"))))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range points {
		_, err := stmt.ExecContext(ctx, p.Symbol,
			decimal.NewFromFloat(p.Price).String(),
			decimal.NewFromFloat(p.Change).String(),
			decimal.NewFromFloat(p.ChangePercent).String(),
			p.Volume, p.Timestamp.UnixMilli(), p.TradingDate)
		if err != nil {
			return fmt.Errorf("append history %s: %w", p.Symbol, err)
		}
	}
	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (s *SQLStore) GetHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.MHistoricalPricePoint, error) {
	query := s.rebind(fmt.Sprintf(`
		SELECT symbol, price, price_change, change_percent, volume, ts, trading_date
		FROM %s
		WHERE symbol = ? AND ts >= ? AND ts <= ?
		ORDER BY ts ASC
	`, s.table("historical_prices")))

	rows, err := s.DB.QueryContext(ctx, query, strings.ToUpper(symbol), from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MHistoricalPricePoint
	for rows.Next() {
		var (
			p                 models.MHistoricalPricePoint
			price, change, cp decimal.Decimal
			ts                int64
		)
		if err := rows.Scan(&p.Symbol, &price, &change, &cp, &p.Volume, &ts, &p.TradingDate); err != nil {
			return nil, err
		}
		p.Price = price.InexactFloat64()
		p.Change = change.InexactFloat64()
		p.ChangePercent = cp.InexactFloat64()
		p.Timestamp = time.UnixMilli(ts).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------

func (s *SQLStore) LogScrape(ctx context.Context, entry models.MScrapeLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := s.rebind(fmt.Sprintf(`
		INSERT INTO %s (id, status, stocks_count, errors, duration_ms, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.table("scraping_logs")))
	_, err := s.DB.ExecContext(ctx, query, entry.ID, entry.Status, entry.StocksCount,
		strings.Join(entry.Errors, "\n"), entry.DurationMs, entry.Source, entry.CreatedAt.UnixMilli())
	return err
}

// -----------------------------------------------------------------------------

func (s *SQLStore) GetScrapeStats(ctx context.Context) (models.MScrapeStats, error) {
	query := s.rebind(fmt.Sprintf(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			MAX(created_at)
		FROM %s
	`, s.table("scraping_logs")))

	var (
		stats   models.MScrapeStats
		lastRun sql.NullInt64
	)
	err := s.DB.QueryRowContext(ctx, query, models.ScrapeStatusSuccess, models.ScrapeStatusError).
		Scan(&stats.TotalRuns, &stats.SuccessfulRuns, &stats.ErrorRuns, &lastRun)
	if err != nil {
		return models.MScrapeStats{}, err
	}
	if lastRun.Valid {
		t := time.UnixMilli(lastRun.Int64).UTC()
		stats.LastRun = &t
	}
	return stats, nil
}

// -----------------------------------------------------------------------------

func (s *SQLStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}
