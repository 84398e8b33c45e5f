package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, int64(941228), cfg.Account.Mid)
	assert.Equal(t, 20, cfg.Scrape.VideoCount)
	assert.Equal(t, 20, cfg.Scrape.DynamicCount)
	assert.Equal(t, 10, cfg.Scrape.MaxPage)
	assert.Equal(t, 30*time.Second, cfg.Scrape.BackoffBaseDelay)
	assert.True(t, cfg.Dashboard.Enabled)
	assert.Equal(t, ":8320", cfg.Dashboard.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BILIGUARD_MID", "12345")
	t.Setenv("BILIGUARD_VIDEO_COUNT", "5")
	t.Setenv("BILIGUARD_DB_DSN", "user:pass@tcp(db:3306)/biliguard")
	t.Setenv("BILIGUARD_SESSDATA", "secret")
	t.Setenv("BILIGUARD_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, int64(12345), cfg.Account.Mid)
	assert.Equal(t, 5, cfg.Scrape.VideoCount)
	assert.Equal(t, "user:pass@tcp(db:3306)/biliguard", cfg.Database.DSN)
	assert.Equal(t, "secret", cfg.Credentials.SessData)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvRejectsBadMid(t *testing.T) {
	t.Setenv("BILIGUARD_MID", "not-a-number")

	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromEnv())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
account:
  mid: 777
scrape:
  video_count: 3
  max_page: 2
dashboard:
  addr: ":9000"
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, int64(777), cfg.Account.Mid)
	assert.Equal(t, 3, cfg.Scrape.VideoCount)
	assert.Equal(t, 2, cfg.Scrape.MaxPage)
	assert.Equal(t, 20, cfg.Scrape.DynamicCount, "unset keys keep their defaults")
	assert.Equal(t, ":9000", cfg.Dashboard.Addr)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadFromFileMissingIsError(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile("/nonexistent/config.yaml"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero mid", func(c *Config) { c.Account.Mid = 0 }},
		{"zero video count", func(c *Config) { c.Scrape.VideoCount = 0 }},
		{"zero dynamic count", func(c *Config) { c.Scrape.DynamicCount = 0 }},
		{"zero max page", func(c *Config) { c.Scrape.MaxPage = 0 }},
		{"zero backoff", func(c *Config) { c.Scrape.BackoffBaseDelay = 0 }},
		{"dashboard without addr", func(c *Config) { c.Dashboard.Addr = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := DefaultConfig()
	cfg.Dashboard.Enabled = false
	cfg.Dashboard.Addr = ""
	assert.NoError(t, cfg.Validate(), "addr is only required when the dashboard is on")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved", "config.yaml")

	cfg := DefaultConfig()
	cfg.Account.Mid = 31337
	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, int64(31337), loaded.Account.Mid)
}
