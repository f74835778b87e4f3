package storage

import (
	"context"
	"database/sql"
	"fmt"

	"mse-observer/src/logger"
	"mse-observer/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresStore struct {
	SQLStore
	DSN    string
	Schema string
}

// -----------------------------------------------------------------------------

func NewPostgresStore(cfg *models.MConfig, log *logger.Logger) *PostgresStore {
	schema := cfg.Storage.Schema
	return &PostgresStore{
		SQLStore: SQLStore{
			Logger:   log,
			numbered: true,
			table:    func(name string) string { return fmt.Sprintf(`"%s"."%s"`, schema, name) },
		},
		DSN:    cfg.Storage.DBConnectionString,
		Schema: schema,
	}
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Initialize(ctx context.Context) error {
	db, err := sql.Open("postgres", d.DSN)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}
	d.DB = db

	if _, err := d.DB.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}
	if err := d.createTables(ctx); err != nil {
		return err
	}

	d.Logger.Info("PostgresStore initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) createTables(ctx context.Context) error {
	queries := []struct{ name, ddl string }{
		{"stocks", `
			CREATE TABLE IF NOT EXISTS %s (
				symbol TEXT PRIMARY KEY,
				id UUID NOT NULL,
				name TEXT NOT NULL,
				price NUMERIC NOT NULL,
				price_change NUMERIC NOT NULL,
				change_percent NUMERIC NOT NULL,
				volume BIGINT NOT NULL DEFAULT 0,
				instrument_type TEXT NOT NULL,
				last_updated BIGINT NOT NULL
			);`},
		{"historical_prices", `
			CREATE TABLE IF NOT EXISTS %s (
				symbol TEXT NOT NULL,
				price NUMERIC NOT NULL,
				price_change NUMERIC NOT NULL,
				change_percent NUMERIC NOT NULL,
				volume BIGINT NOT NULL DEFAULT 0,
				ts BIGINT NOT NULL,
				trading_date TEXT NOT NULL,
				PRIMARY KEY (symbol, ts)
			);`},
		{"scraping_logs", `
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY,
				status TEXT NOT NULL,
				stocks_count INTEGER NOT NULL,
				errors TEXT,
				duration_ms BIGINT NOT NULL,
				source TEXT NOT NULL,
				created_at BIGINT NOT NULL
			);`},
	}

	for _, q := range queries {
		if _, err := d.DB.ExecContext(ctx, fmt.Sprintf(q.ddl, d.table(q.name))); err != nil {
			return fmt.Errorf("failed to create %s: %w", q.name, err)
		}
	}

	index := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_scraping_logs_created ON %s (created_at)`, d.table("scraping_logs"))
	if _, err := d.DB.ExecContext(ctx, index); err != nil {
		d.Logger.Warning("Failed to create scraping_logs index: %v", err)
	}
	return nil
}
