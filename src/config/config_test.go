package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
name: mse-observer
host: 127.0.0.1
port: 8080
storage:
  db_type: sqlite
  db_path: test.db
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestNewConfig_AppliesDefaults(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "browser", cfg.Scraper.Navigator)
	assert.Equal(t, "https://www.mse.mk/mk", cfg.Scraper.ListingURL)
	assert.Equal(t, "#topSymbolValueTopSymbols table", cfg.Scraper.TableSelector)
	assert.Equal(t, 3, cfg.Scraper.MaxAttempts)
	assert.Equal(t, 3, cfg.Enrichment.BatchSize)
	assert.Equal(t, int64(10000), cfg.Enrichment.MaxVolume)
	assert.Equal(t, 15, cfg.Chain.StaleAfterMinutes)
	assert.Equal(t, 30, cfg.Chain.FreshForSeconds)
	assert.Equal(t, 30, cfg.History.DefaultDays)
}

func TestNewConfig_ShippedDefaultFileIsValid(t *testing.T) {
	cfg, err := NewConfig(filepath.Join("..", "..", "config", "default.yaml"))
	require.NoError(t, err)
	assert.True(t, cfg.Enrichment.Enabled)
	assert.True(t, cfg.Chain.StaleWhileRevalidate)
	assert.True(t, cfg.Refresh.Enabled)
	assert.Empty(t, cfg.GrpcToken)
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("MSE_PORT", "9090")
	t.Setenv("MSE_DB_TYPE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/mse?sslmode=disable")
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("MSE_GRPC_TOKEN", "s3cret")

	cfg, err := NewConfig(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "postgres", cfg.Storage.DBType)
	assert.Equal(t, "postgres://u:p@localhost/mse?sslmode=disable", cfg.Storage.DBConnectionString)
	assert.True(t, cfg.Cache.RedisEnabled)
	assert.Equal(t, "cache.internal", cfg.Cache.RedisHost)
	assert.Equal(t, "s3cret", cfg.GrpcToken)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"bad port", func(c *Config) { c.Port = 80 }, "invalid server port"},
		{"unknown db", func(c *Config) { c.Storage.DBType = "mongo" }, "unknown database type"},
		{"postgres without dsn", func(c *Config) { c.Storage.DBType = "postgres" }, "connection string"},
		{"unknown navigator", func(c *Config) { c.Scraper.Navigator = "curl" }, "unknown navigator"},
		{"unknown locale", func(c *Config) { c.Scraper.Locale = "de" }, "unknown number locale"},
		{"detail template", func(c *Config) { c.Scraper.DetailURLTemplate = "https://x" }, "must contain"},
		{"volume range", func(c *Config) { c.Enrichment.MinVolume = 20000 }, "exceeds max volume"},
		{"redis without host", func(c *Config) { c.Cache.RedisEnabled = true }, "redis host"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			require.NoError(t, c.Validate())
			tc.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}

	none := Default()
	none.Storage.DBType = "none"
	assert.NoError(t, none.Validate())
}

func TestSave_RoundTrip(t *testing.T) {
	c := Default()
	c.Port = 8181
	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, c.Save(path))

	loaded, err := NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8181, loaded.Port)
	assert.Equal(t, c.Scraper.ListingURL, loaded.Scraper.ListingURL)
}
