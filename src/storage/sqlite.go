package storage

import (
	"context"
	"database/sql"
	"fmt"

	"mse-observer/src/logger"
	"mse-observer/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteStore struct {
	SQLStore
	Path string
}

// -----------------------------------------------------------------------------

func NewSQLiteStore(cfg *models.MConfig, log *logger.Logger) *SQLiteStore {
	return &SQLiteStore{
		SQLStore: SQLStore{
			Logger: log,
			table:  func(name string) string { return name },
		},
		Path: cfg.Storage.DBPath,
	}
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Initialize(ctx context.Context) error {
	db, err := sql.Open("sqlite", d.Path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}

	// sqlite allows a single writer
	db.SetMaxOpenConns(1)
	d.DB = db

	// PRAGMA optimizations
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	if err := d.createTables(ctx); err != nil {
		return err
	}
	d.Logger.Info("SQLite store ready at %s", d.Path)
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) createTables(ctx context.Context) error {
	statements := map[string]string{
		"stocks": `
			CREATE TABLE IF NOT EXISTS stocks (
				symbol TEXT PRIMARY KEY,
				id TEXT NOT NULL,
				name TEXT NOT NULL,
				price NUMERIC NOT NULL,
				price_change NUMERIC NOT NULL,
				change_percent NUMERIC NOT NULL,
				volume INTEGER NOT NULL DEFAULT 0,
				instrument_type TEXT NOT NULL,
				last_updated INTEGER NOT NULL
			);`,
		"historical_prices": `
			CREATE TABLE IF NOT EXISTS historical_prices (
				symbol TEXT NOT NULL,
				price NUMERIC NOT NULL,
				price_change NUMERIC NOT NULL,
				change_percent NUMERIC NOT NULL,
				volume INTEGER NOT NULL DEFAULT 0,
				ts INTEGER NOT NULL,
				trading_date TEXT NOT NULL,
				PRIMARY KEY (symbol, ts)
			);`,
		"scraping_logs": `
			CREATE TABLE IF NOT EXISTS scraping_logs (
				id TEXT PRIMARY KEY,
				status TEXT NOT NULL,
				stocks_count INTEGER NOT NULL,
				errors TEXT,
				duration_ms INTEGER NOT NULL,
				source TEXT NOT NULL,
				created_at INTEGER NOT NULL
			);`,
	}

	for _, name := range []string{"stocks", "historical_prices", "scraping_logs"} {
		if _, err := d.DB.ExecContext(ctx, statements[name]); err != nil {
			return fmt.Errorf("failed to create %s: %w", name, err)
		}
	}
	return nil
}
