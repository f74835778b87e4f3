package models

// MConfig Structure
type MConfig struct {
	Name       string            `yaml:"name"`
	Host       string            `yaml:"host"`
	Port       int               `yaml:"port"`
	LogLevel   string            `yaml:"log_level"`
	GrpcHost   string            `yaml:"grpc_host"`
	GrpcPort   int               `yaml:"grpc_port"`
	GrpcToken  string            `yaml:"grpc_token"`
	Storage    MStorageConfig    `yaml:"storage"`
	Cache      MCacheConfig      `yaml:"cache"`
	Network    MNetworkConfig    `yaml:"network"`
	Scraper    MScraperConfig    `yaml:"scraper"`
	Enrichment MEnrichmentConfig `yaml:"enrichment"`
	Chain      MChainConfig      `yaml:"chain"`
	Mock       MMockConfig       `yaml:"mock"`
	History    MHistoryConfig    `yaml:"history"`
	Refresh    MRefreshConfig    `yaml:"refresh"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"` // sqlite | postgres | gorm | none
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	Schema             string `yaml:"schema"`
}

type MCacheConfig struct {
	RedisEnabled  bool   `yaml:"redis_enabled"`
	RedisHost     string `yaml:"redis_host"`
	RedisPort     string `yaml:"redis_port"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisKey      string `yaml:"redis_key"`
	TTLMinutes    int    `yaml:"ttl_minutes"`
}

type MNetworkConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Proxies        []string `yaml:"proxies"`
	RequestTimeout int      `yaml:"timeout"`
	MaxRetries     int      `yaml:"retries"`
	UserAgent      string   `yaml:"user_agent"`
}

type MScraperConfig struct {
	Navigator             string `yaml:"navigator"` // browser | http
	ListingURL            string `yaml:"listing_url"`
	DetailURLTemplate     string `yaml:"detail_url_template"`
	TableSelector         string `yaml:"table_selector"`
	Locale                string `yaml:"locale"` // en | mk
	NavigationTimeoutSecs int    `yaml:"navigation_timeout_seconds"`
	SettleMillis          int    `yaml:"settle_millis"`
	MaxAttempts           int    `yaml:"max_attempts"`
	RetryBaseDelayMillis  int    `yaml:"retry_base_delay_millis"`
	ScrapeTimeoutSeconds  int    `yaml:"scrape_timeout_seconds"`
	ChromePath            string `yaml:"chrome_path"`
	Headless              bool   `yaml:"headless"`
}

type MEnrichmentConfig struct {
	Enabled          bool  `yaml:"enabled"`
	BatchSize        int   `yaml:"batch_size"`
	PageTimeoutSecs  int   `yaml:"page_timeout_seconds"`
	BatchDelayMillis int   `yaml:"batch_delay_millis"`
	MinVolume        int64 `yaml:"min_volume"`
	MaxVolume        int64 `yaml:"max_volume"`
}

type MChainConfig struct {
	FreshForSeconds      int  `yaml:"fresh_for_seconds"`
	StaleAfterMinutes    int  `yaml:"stale_after_minutes"`
	StaleWhileRevalidate bool `yaml:"stale_while_revalidate"`
}

type MMockConfig struct {
	Seed int64 `yaml:"seed"`
}

type MHistoryConfig struct {
	MemoryPoints int `yaml:"memory_points"`
	MaxMemoryMB  int `yaml:"max_memory_mb"`
	DefaultDays  int `yaml:"default_days"`
	MaxDays      int `yaml:"max_days"`
}

type MRefreshConfig struct {
	Enabled                 bool `yaml:"enabled"`
	PeakIntervalSeconds     int  `yaml:"peak_interval_seconds"`
	MarketIntervalSeconds   int  `yaml:"market_interval_seconds"`
	OffHoursIntervalSeconds int  `yaml:"off_hours_interval_seconds"`
	WeekendIntervalSeconds  int  `yaml:"weekend_interval_seconds"`
}

// GetLogLevel exposes the configured level to the logger without an import cycle.
func (c *MConfig) GetLogLevel() string {
	if c == nil {
		return ""
	}
	return c.LogLevel
}
