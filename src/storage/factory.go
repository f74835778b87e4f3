package storage

import (
	"fmt"

	"mse-observer/src/interfaces"
	"mse-observer/src/logger"
	"mse-observer/src/models"
)

// New returns the store selected by cfg.Storage.DBType, or nil for "none".
// The caller still has to Initialize it.
func New(cfg *models.MConfig, log *logger.Logger) (interfaces.IStockStore, error) {
	switch cfg.Storage.DBType {
	case "sqlite":
		return NewSQLiteStore(cfg, log), nil
	case "postgres":
		return NewPostgresStore(cfg, log), nil
	case "gorm":
		return NewGormStore(cfg, log), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown database type %q", cfg.Storage.DBType)
	}
}
