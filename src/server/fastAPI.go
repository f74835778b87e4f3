package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"mse-observer/src/analysis"
	datasource "mse-observer/src/data_source"
	"mse-observer/src/interfaces"
	"mse-observer/src/logger"
	"mse-observer/src/models"
	"mse-observer/src/utils"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// FastAPIServer
// -----------------------------------------------------------------------------

type FastAPIServer struct {
	Config   *models.MConfig
	Logger   *logger.Logger
	Provider interfaces.ISnapshotProvider
	Store    interfaces.IStockStore
	History  *datasource.HistoryService
	Calendar *utils.TradingCalendar
	Universe []string
	Now      func() time.Time

	engine     *gin.Engine
	httpServer *http.Server

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan models.MSnapshot
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	hubOnce    sync.Once
	stopOnce   sync.Once

	// Last pushed snapshot, sent to new connections
	latestState *models.MSnapshot
	stateMutex  sync.RWMutex
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewFastAPIServer(cfg *models.MConfig, provider interfaces.ISnapshotProvider, store interfaces.IStockStore,
	history *datasource.HistoryService, calendar *utils.TradingCalendar, universe []string, log *logger.Logger) *FastAPIServer {
	if !strings.EqualFold(cfg.LogLevel, "DEBUG") {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &FastAPIServer{
		Config:   cfg,
		Logger:   log,
		Provider: provider,
		Store:    store,
		History:  history,
		Calendar: calendar,
		Universe: universe,
		Now:      time.Now,
		engine:   gin.New(),
		clients:  make(map[*Client]struct{}),
		// Buffered so a slow hub never blocks the refresher
		broadcast:  make(chan models.MSnapshot, 32),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}

	s.engine.Use(gin.Recovery())
	if strings.EqualFold(cfg.LogLevel, "DEBUG") {
		s.engine.Use(gin.Logger())
	}

	// CORS for the local dashboard
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *FastAPIServer) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/stocks", s.getStocks)
	api.GET("/stocks/all", s.getAllStocks)
	api.GET("/stocks/:symbol", s.getStock)
	api.GET("/stocks/:symbol/history", s.getHistory)
	api.GET("/market/status", s.getMarketStatus)
	api.GET("/market/overview", s.getMarketOverview)
	api.GET("/health", s.getHealth)

	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler exposes the router and starts the websocket hub.
func (s *FastAPIServer) Handler() http.Handler {
	s.startHub()
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *FastAPIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)
		if s.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err = s.httpServer.Shutdown(ctx)
		}
	})
	return err
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

type stocksResponse struct {
	models.MSnapshot
	Count        int                  `json:"count"`
	MarketStatus models.MMarketStatus `json:"marketStatus"`
}

func (s *FastAPIServer) getStocks(c *gin.Context) {
	snap := s.Provider.Snapshot(c.Request.Context())
	c.JSON(http.StatusOK, stocksResponse{
		MSnapshot:    snap,
		Count:        len(snap.Stocks),
		MarketStatus: s.Calendar.MarketStatus(s.Now()),
	})
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getAllStocks(c *gin.Context) {
	ctx := c.Request.Context()
	snap := s.Provider.Snapshot(ctx)
	all := datasource.DiscoverAll(ctx, snap, s.Store, s.Universe)

	active := 0
	for _, r := range all {
		if r.Price > 0 {
			active++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"stocks": all,
		"count":  len(all),
		"active": active,
		"source": snap.Tier,
	})
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getStock(c *gin.Context) {
	symbol := normalizeSymbol(c.Param("symbol"))
	snap := s.Provider.Snapshot(c.Request.Context())

	for _, r := range snap.Stocks {
		if r.Symbol == symbol {
			c.JSON(http.StatusOK, gin.H{
				"stock":  datasource.Detail(r),
				"source": snap.Tier,
				"stale":  snap.Stale,
			})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("stock %s not found", symbol)})
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getHistory(c *gin.Context) {
	symbol := normalizeSymbol(c.Param("symbol"))
	days, err := parseDays(c.Query("days"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	days = s.History.ClampDays(days)
	points, source := s.History.Get(c.Request.Context(), symbol, days)
	c.JSON(http.StatusOK, gin.H{
		"symbol":  symbol,
		"days":    days,
		"source":  source,
		"points":  points,
		"count":   len(points),
		"summary": analysis.SummarizeHistory(points),
	})
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getMarketStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.Calendar.MarketStatus(s.Now()))
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getMarketOverview(c *gin.Context) {
	snap := s.Provider.Snapshot(c.Request.Context())
	c.JSON(http.StatusOK, analysis.BuildOverview(snap, 5))
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getHealth(c *gin.Context) {
	ctx := c.Request.Context()
	tiers := s.Provider.TierStatuses()

	s.stateMutex.RLock()
	connections := len(s.clients)
	s.stateMutex.RUnlock()

	database := gin.H{"status": "disabled"}
	if s.Store != nil {
		if err := s.Store.Ping(ctx); err != nil {
			database = gin.H{"status": "unavailable", "error": err.Error()}
		} else {
			database = gin.H{"status": "ok"}
			if stats, err := s.Store.GetScrapeStats(ctx); err == nil {
				database["scrapeStats"] = stats
			} else {
				s.Logger.Warning("Reading scrape stats failed: %v", err)
			}
		}
	}

	status := "degraded"
	for _, t := range tiers {
		if (t.Tier == models.TierLive || t.Tier == models.TierDatabase) && t.Available {
			status = "ok"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      status,
		"tiers":       tiers,
		"database":    database,
		"connections": connections,
		"timestamp":   s.Now().UTC(),
	})
}
