package main

import (
	"context"
	"fmt"

	"mse-observer/src/cache"
	"mse-observer/src/catalog"
	"mse-observer/src/config"
	datasource "mse-observer/src/data_source"
	"mse-observer/src/data_source/synthetic"
	"mse-observer/src/interfaces"
	"mse-observer/src/logger"
	"mse-observer/src/navigator"
	"mse-observer/src/network"
	"mse-observer/src/scraper"
	"mse-observer/src/storage"
	"mse-observer/src/utils"
)

// application holds every long-lived component.
type application struct {
	Config    *config.Config
	Logger    *logger.Logger
	Navigator interfaces.IPageNavigator
	Scraper   *scraper.MSEScraper
	Store     interfaces.IStockStore
	Cache     interfaces.ISnapshotCache
	Synthetic *synthetic.Generator
	Memory    *utils.MemoryManager
	Chain     *datasource.FallbackChain
	History   *datasource.HistoryService
	Calendar  *utils.TradingCalendar
}

// -----------------------------------------------------------------------------

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		cfg := config.Default()
		cfg.ApplyEnv()
		return cfg, cfg.Validate()
	}
	return config.NewConfig(configPath)
}

// -----------------------------------------------------------------------------

// bootstrap builds the pipeline. A store that cannot be initialized is kept
// out of the chain; the remaining tiers still answer.
func bootstrap(ctx context.Context) (*application, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	appLogger := logger.NewLogger(cfg, cfg.Name)
	app := &application{
		Config:   cfg,
		Logger:   appLogger,
		Calendar: utils.NewMSECalendar(),
	}
	if app.Calendar.Fallback {
		appLogger.Warning("No exchange calendar for %s, treating every weekday as a trading day", utils.MSEMic)
	}

	// 1. Live tier
	netManager := network.NewAsyncNetworkManager(cfg.MConfig, appLogger.Named("network"))
	app.Navigator = navigator.New(cfg.MConfig, netManager, appLogger.Named("navigator"))
	app.Scraper = scraper.NewMSEScraper(cfg.MConfig, app.Navigator, appLogger.Named("scraper"))

	// 2. Durable store
	store, err := storage.New(cfg.MConfig, appLogger.Named("storage"))
	if err != nil {
		return nil, err
	}
	if store != nil {
		if err := store.Initialize(ctx); err != nil {
			appLogger.Error("Store unavailable, continuing without it: %v", err)
			store.Close()
		} else {
			app.Store = store
		}
	}

	// 3. Cache
	app.Cache = cache.New(cfg.Cache, appLogger.Named("cache"))
	if err := app.Cache.Init(ctx); err != nil {
		return nil, fmt.Errorf("initializing cache: %w", err)
	}

	// 4. Synthetic tier and history ring
	app.Synthetic = synthetic.NewGenerator(cfg.Mock.Seed)
	app.Memory = utils.NewMemoryManager(cfg.History.MaxMemoryMB, cfg.History.MemoryPoints, appLogger.Named("memory"))

	// 5. Chain
	app.Chain = datasource.NewFallbackChain(app.Scraper, app.Store, app.Cache, app.Synthetic, cfg.Chain, appLogger.Named("chain"))
	app.Chain.History = app.Memory
	app.History = datasource.NewHistoryService(app.Store, app.Memory, cfg.History, appLogger.Named("history"))

	appLogger.Info("Bootstrap complete: navigator=%s store=%s redis=%v universe=%d",
		cfg.Scraper.Navigator, cfg.Storage.DBType, cfg.Cache.RedisEnabled, len(catalog.Universe()))
	return app, nil
}

// -----------------------------------------------------------------------------

func (a *application) Close() {
	if a.Navigator != nil {
		if err := a.Navigator.Close(); err != nil {
			a.Logger.Warning("Closing navigator: %v", err)
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warning("Closing store: %v", err)
		}
	}
	if c, ok := a.Cache.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			a.Logger.Warning("Closing cache: %v", err)
		}
	}
}
