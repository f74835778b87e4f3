package navigator

import (
	"time"

	"mse-observer/src/interfaces"
	"mse-observer/src/logger"
	"mse-observer/src/models"
)

// New builds the navigator selected by cfg.Scraper.Navigator.
func New(cfg *models.MConfig, network interfaces.INetworkManager, log *logger.Logger) interfaces.IPageNavigator {
	if cfg.Scraper.Navigator == "http" {
		log.Info("Using HTTP navigator")
		return NewHTTPNavigator(network, time.Duration(cfg.Scraper.NavigationTimeoutSecs)*time.Second)
	}
	log.Info("Using headless browser navigator (headless=%v)", cfg.Scraper.Headless)
	return NewBrowserNavigator(cfg.Scraper, cfg.Network.UserAgent, log)
}
