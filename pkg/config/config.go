package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the guardian daemon
type Config struct {
	// Account is the monitored Bilibili account
	Account AccountConfig `yaml:"account" json:"account"`

	// Scrape controls the enumeration and comment paging limits
	Scrape ScrapeConfig `yaml:"scrape" json:"scrape"`

	// Database holds the comment store settings
	Database DatabaseConfig `yaml:"database" json:"database"`

	// Dashboard holds the HTTP dashboard settings
	Dashboard DashboardConfig `yaml:"dashboard" json:"dashboard"`

	// Credentials are the Bilibili cookie credentials, passed through to the
	// API client unmodified
	Credentials CredentialConfig `yaml:"credentials" json:"credentials"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// AccountConfig identifies the monitored account
type AccountConfig struct {
	Mid int64 `yaml:"mid" json:"mid"`
}

// ScrapeConfig holds enumeration caps and paging limits
type ScrapeConfig struct {
	// VideoCount caps how many videos are scraped per pass
	VideoCount int `yaml:"video_count" json:"video_count"`
	// DynamicCount caps how many dynamics are scraped per pass
	DynamicCount int `yaml:"dynamic_count" json:"dynamic_count"`
	// MaxPage caps comment listing pages per content item and ordering
	MaxPage int `yaml:"max_page" json:"max_page"`
	// RecentCutoff marks content created at or after it as recent; recent
	// items are excluded from the legacy aggregate counters on the dashboard
	RecentCutoff time.Time `yaml:"recent_cutoff" json:"recent_cutoff"`
	// BackoffBaseDelay is the base wait window of the rate-limit gate
	BackoffBaseDelay time.Duration `yaml:"backoff_base_delay" json:"backoff_base_delay"`
}

// DatabaseConfig holds the comment store settings
type DatabaseConfig struct {
	// DSN is a go-sql-driver/mysql DSN. Empty selects the in-memory store,
	// which does not survive restarts.
	DSN string `yaml:"dsn" json:"dsn"`
}

// DashboardConfig holds the HTTP dashboard settings
type DashboardConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
	// StatusFile is where the pass status snapshot is persisted
	StatusFile string `yaml:"status_file" json:"status_file"`
}

// CredentialConfig holds the Bilibili cookie set
type CredentialConfig struct {
	SessData string `yaml:"sessdata" json:"sessdata"`
	BiliJct  string `yaml:"bili_jct" json:"bili_jct"`
	Buvid3   string `yaml:"buvid3" json:"buvid3"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Account: AccountConfig{
			Mid: 941228,
		},
		Scrape: ScrapeConfig{
			VideoCount:       20,
			DynamicCount:     20,
			MaxPage:          10,
			BackoffBaseDelay: 30 * time.Second,
		},
		Dashboard: DashboardConfig{
			Enabled:    true,
			Addr:       ":8320",
			StatusFile: "biliguard.status.json",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if mid := os.Getenv("BILIGUARD_MID"); mid != "" {
		val, err := strconv.ParseInt(mid, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid BILIGUARD_MID: %w", err)
		}
		c.Account.Mid = val
	}
	if v := os.Getenv("BILIGUARD_VIDEO_COUNT"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			c.Scrape.VideoCount = val
		}
	}
	if v := os.Getenv("BILIGUARD_DYNAMIC_COUNT"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			c.Scrape.DynamicCount = val
		}
	}
	if v := os.Getenv("BILIGUARD_MAX_PAGE"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			c.Scrape.MaxPage = val
		}
	}
	if dsn := os.Getenv("BILIGUARD_DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if addr := os.Getenv("BILIGUARD_DASHBOARD_ADDR"); addr != "" {
		c.Dashboard.Addr = addr
	}
	if v := os.Getenv("BILIGUARD_SESSDATA"); v != "" {
		c.Credentials.SessData = v
	}
	if v := os.Getenv("BILIGUARD_BILI_JCT"); v != "" {
		c.Credentials.BiliJct = v
	}
	if v := os.Getenv("BILIGUARD_BUVID3"); v != "" {
		c.Credentials.Buvid3 = v
	}
	if level := os.Getenv("BILIGUARD_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for a config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".biliguard.yaml",
		".biliguard.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "biliguard", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".biliguard.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Account.Mid <= 0 {
		errs = append(errs, errors.New("account mid is required"))
	}
	if c.Scrape.VideoCount <= 0 {
		errs = append(errs, errors.New("video count must be positive"))
	}
	if c.Scrape.DynamicCount <= 0 {
		errs = append(errs, errors.New("dynamic count must be positive"))
	}
	if c.Scrape.MaxPage <= 0 {
		errs = append(errs, errors.New("max page must be positive"))
	}
	if c.Scrape.BackoffBaseDelay <= 0 {
		errs = append(errs, errors.New("backoff base delay must be positive"))
	}
	if c.Dashboard.Enabled && c.Dashboard.Addr == "" {
		errs = append(errs, errors.New("dashboard address is required when the dashboard is enabled"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Environment variables > .env file > Config file > Defaults
func Load(configPath string) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".biliguard.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
