package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"mse-observer/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config from a YAML file, then applies .env and
// environment overrides and defaults before validating.
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}

	// 3. Environment overrides (.env is optional)
	_ = godotenv.Load()
	config.ApplyEnv()
	config.ApplyDefaults()

	// 4. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// Default returns a configuration that runs with no file at all.
func Default() *Config {
	c := &Config{MConfig: &models.MConfig{
		Name:     "mse-observer",
		Host:     "127.0.0.1",
		Port:     8080,
		LogLevel: "INFO",
		Storage:  models.MStorageConfig{DBType: "sqlite", DBPath: "mse.db"},
		Scraper:  models.MScraperConfig{Headless: true},
		Enrichment: models.MEnrichmentConfig{
			Enabled: true,
		},
		Chain: models.MChainConfig{StaleWhileRevalidate: true},
	}}
	c.ApplyDefaults()
	return c
}

// -----------------------------------------------------------------------------

// ApplyDefaults fills every zero-valued tunable.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "mse-observer"
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Storage.Schema == "" {
		c.Storage.Schema = "mse"
	}

	if c.Cache.RedisPort == "" {
		c.Cache.RedisPort = "6379"
	}
	if c.Cache.RedisKey == "" {
		c.Cache.RedisKey = "mse:snapshot"
	}
	if c.Cache.TTLMinutes <= 0 {
		c.Cache.TTLMinutes = 60
	}

	if c.Network.RequestTimeout <= 0 {
		c.Network.RequestTimeout = 30
	}

	s := &c.Scraper
	if s.Navigator == "" {
		s.Navigator = "browser"
	}
	if s.ListingURL == "" {
		s.ListingURL = "https://www.mse.mk/mk"
	}
	if s.DetailURLTemplate == "" {
		s.DetailURLTemplate = "https://www.mse.mk/en/symbol/%s"
	}
	if s.TableSelector == "" {
		s.TableSelector = "#topSymbolValueTopSymbols table"
	}
	if s.Locale == "" {
		s.Locale = "en"
	}
	if s.NavigationTimeoutSecs <= 0 {
		s.NavigationTimeoutSecs = 30
	}
	if s.SettleMillis <= 0 {
		s.SettleMillis = 2000
	}
	if s.MaxAttempts <= 0 {
		s.MaxAttempts = 3
	}
	if s.RetryBaseDelayMillis <= 0 {
		s.RetryBaseDelayMillis = 1000
	}
	if s.ScrapeTimeoutSeconds <= 0 {
		s.ScrapeTimeoutSeconds = 45
	}

	e := &c.Enrichment
	if e.BatchSize <= 0 {
		e.BatchSize = 3
	}
	if e.PageTimeoutSecs <= 0 {
		e.PageTimeoutSecs = 15
	}
	if e.MinVolume <= 0 {
		e.MinVolume = 1
	}
	if e.MaxVolume <= 0 {
		e.MaxVolume = 10000
	}

	if c.Chain.FreshForSeconds <= 0 {
		c.Chain.FreshForSeconds = 30
	}
	if c.Chain.StaleAfterMinutes <= 0 {
		c.Chain.StaleAfterMinutes = 15
	}

	if c.Mock.Seed == 0 {
		c.Mock.Seed = 20240101
	}

	if c.History.MemoryPoints <= 0 {
		c.History.MemoryPoints = 2000
	}
	if c.History.MaxMemoryMB <= 0 {
		c.History.MaxMemoryMB = 256
	}
	if c.History.DefaultDays <= 0 {
		c.History.DefaultDays = 30
	}
	if c.History.MaxDays <= 0 {
		c.History.MaxDays = 365
	}

	r := &c.Refresh
	if r.PeakIntervalSeconds <= 0 {
		r.PeakIntervalSeconds = 15
	}
	if r.MarketIntervalSeconds <= 0 {
		r.MarketIntervalSeconds = 30
	}
	if r.OffHoursIntervalSeconds <= 0 {
		r.OffHoursIntervalSeconds = 300
	}
	if r.WeekendIntervalSeconds <= 0 {
		r.WeekendIntervalSeconds = 900
	}
}

// -----------------------------------------------------------------------------

// ApplyEnv overrides selected settings from the process environment.
// Secrets are expected to arrive this way rather than through the YAML file.
func (c *Config) ApplyEnv() {
	c.LogLevel = getEnvOrDefault("MSE_LOG_LEVEL", c.LogLevel)
	c.Host = getEnvOrDefault("MSE_HOST", c.Host)
	c.Port = getEnvIntOrDefault("MSE_PORT", c.Port)
	c.GrpcPort = getEnvIntOrDefault("MSE_GRPC_PORT", c.GrpcPort)
	c.GrpcToken = getEnvOrDefault("MSE_GRPC_TOKEN", c.GrpcToken)

	c.Storage.DBType = getEnvOrDefault("MSE_DB_TYPE", c.Storage.DBType)
	c.Storage.DBPath = getEnvOrDefault("MSE_DB_PATH", c.Storage.DBPath)
	c.Storage.DBConnectionString = getEnvOrDefault("DATABASE_URL", c.Storage.DBConnectionString)
	c.Storage.DBConnectionString = getEnvOrDefault("MSE_DB_CONNECTION_STRING", c.Storage.DBConnectionString)

	c.Cache.RedisHost = getEnvOrDefault("REDIS_HOST", c.Cache.RedisHost)
	c.Cache.RedisPort = getEnvOrDefault("REDIS_PORT", c.Cache.RedisPort)
	c.Cache.RedisPassword = getEnvOrDefault("REDIS_PASSWORD", c.Cache.RedisPassword)
	if c.Cache.RedisHost != "" && os.Getenv("REDIS_HOST") != "" {
		c.Cache.RedisEnabled = true
	}

	c.Scraper.Navigator = getEnvOrDefault("MSE_NAVIGATOR", c.Scraper.Navigator)
	c.Scraper.ChromePath = getEnvOrDefault("MSE_CHROME_PATH", c.Scraper.ChromePath)
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort != 0 && (c.GrpcPort <= 1024 || c.GrpcPort > 65535) {
		return fmt.Errorf("invalid grpc port number: %d", c.GrpcPort)
	}

	switch c.Storage.DBType {
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres", "gorm":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("database connection string cannot be empty for %s", c.Storage.DBType)
		}
	case "none":
	case "":
		return fmt.Errorf("database type cannot be empty")
	default:
		return fmt.Errorf("unknown database type %q", c.Storage.DBType)
	}

	if c.Cache.RedisEnabled && c.Cache.RedisHost == "" {
		return fmt.Errorf("redis host cannot be empty when redis is enabled")
	}

	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	switch c.Scraper.Navigator {
	case "browser", "http":
	default:
		return fmt.Errorf("unknown navigator %q (expected browser or http)", c.Scraper.Navigator)
	}
	switch strings.ToLower(c.Scraper.Locale) {
	case "en", "mk":
	default:
		return fmt.Errorf("unknown number locale %q (expected en or mk)", c.Scraper.Locale)
	}
	if !strings.Contains(c.Scraper.DetailURLTemplate, "%s") {
		return fmt.Errorf("detail url template must contain %%s")
	}

	if c.Enrichment.MinVolume > c.Enrichment.MaxVolume {
		return fmt.Errorf("enrichment min volume %d exceeds max volume %d", c.Enrichment.MinVolume, c.Enrichment.MaxVolume)
	}
	if c.History.DefaultDays > c.History.MaxDays {
		return fmt.Errorf("history default days %d exceeds max days %d", c.History.DefaultDays, c.History.MaxDays)
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
