package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Backend    BackendConfig    `yaml:"backend"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Search     SearchConfig     `yaml:"search"`
	Watcher    WatcherConfig    `yaml:"watcher"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port" validate:"gt=0,lt=65536"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec" validate:"gt=0"`
	RateLimitBurst  int     `yaml:"rate_limit_burst" validate:"gt=0"`
	// CacheTTLSeconds of 0 disables the listing cache; unset means 300.
	CacheTTLSeconds *int          `yaml:"cache_ttl_seconds" validate:"omitempty,gte=0"`
	CacheTTL        time.Duration `yaml:"-"`
}

// BackendConfig describes the prediction service this client talks to.
type BackendConfig struct {
	BaseURL            string        `yaml:"base_url" validate:"required,url"`
	TimeoutSeconds     int           `yaml:"timeout_seconds" validate:"gt=0"`
	Timeout            time.Duration `yaml:"-"`
	HTTPProxy          string        `yaml:"http_proxy" validate:"omitempty,url"`
	KeyScheme          string        `yaml:"key_scheme" validate:"oneof=lot zone"`
	DatetimeConvention string        `yaml:"datetime_convention" validate:"oneof=local utc"`
	Timezone           string        `yaml:"timezone" validate:"required"`
	DurationHours      int           `yaml:"duration_hours" validate:"gte=0"`
}

// CatalogConfig controls how long a lot snapshot is reused.
type CatalogConfig struct {
	RefreshIntervalSeconds int           `yaml:"refresh_interval_seconds" validate:"gt=0"`
	RefreshInterval        time.Duration `yaml:"-"`
}

// SearchConfig tunes the quick-search fan-out.
type SearchConfig struct {
	// MaxConcurrent bounds in-flight prediction requests; 0 means unbounded.
	MaxConcurrent int `yaml:"max_concurrent" validate:"gte=0"`
	HistoryLimit  int `yaml:"history_limit" validate:"gt=0"`
	// Alternatives is how many runner-up lots accompany a recommendation;
	// unset means 3.
	Alternatives *int `yaml:"alternatives" validate:"omitempty,gte=0"`
}

// WatcherConfig holds the lot-watch polling configuration.
type WatcherConfig struct {
	Enabled            bool          `yaml:"enabled"`
	IntervalSeconds    int           `yaml:"interval_seconds" validate:"gt=0"`
	Interval           time.Duration `yaml:"-"`
	MinAvailableSpaces int           `yaml:"min_available_spaces" validate:"gt=0"`
}

// DatabaseConfig holds the database connection configuration. A DSN starting
// with "sqlite:" or "file:" selects sqlite, anything else postgres.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn" validate:"required"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	Debug                  bool   `yaml:"debug"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are configured.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size" validate:"gt=0"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// Load reads the configuration from the given path. A .env file in the
// working directory is loaded first, environment overrides are applied after
// the YAML.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PARKGUIDE_BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("PARKGUIDE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PARKGUIDE_PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("PARKGUIDE_DATABASE_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("PARKGUIDE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// SetDefaults fills every unset field with its default.
func (c *Config) SetDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimitPerSec <= 0 {
		c.Server.RateLimitPerSec = 10
	}
	if c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = 5
	}
	if c.Server.CacheTTLSeconds == nil {
		c.Server.CacheTTLSeconds = intPtr(300)
	}
	c.Server.CacheTTL = time.Duration(*c.Server.CacheTTLSeconds) * time.Second

	if c.Backend.TimeoutSeconds <= 0 {
		c.Backend.TimeoutSeconds = 10
	}
	c.Backend.Timeout = time.Duration(c.Backend.TimeoutSeconds) * time.Second
	if c.Backend.KeyScheme == "" {
		c.Backend.KeyScheme = "lot"
	}
	if c.Backend.DatetimeConvention == "" {
		c.Backend.DatetimeConvention = "local"
	}
	if c.Backend.Timezone == "" {
		c.Backend.Timezone = "America/Los_Angeles"
	}

	if c.Catalog.RefreshIntervalSeconds <= 0 {
		c.Catalog.RefreshIntervalSeconds = 900
	}
	c.Catalog.RefreshInterval = time.Duration(c.Catalog.RefreshIntervalSeconds) * time.Second

	if c.Search.HistoryLimit <= 0 {
		c.Search.HistoryLimit = 50
	}
	if c.Search.Alternatives == nil {
		c.Search.Alternatives = intPtr(3)
	}

	if c.Watcher.IntervalSeconds <= 0 {
		c.Watcher.IntervalSeconds = 120
	}
	c.Watcher.Interval = time.Duration(c.Watcher.IntervalSeconds) * time.Second
	if c.Watcher.MinAvailableSpaces <= 0 {
		c.Watcher.MinAvailableSpaces = 5
	}

	if c.Database.DSN == "" {
		c.Database.DSN = "sqlite:parkguide.db"
	}

	if c.Push.TTL <= 0 {
		c.Push.TTL = 3600
	}

	if c.WorkerPool.Size <= 0 {
		c.WorkerPool.Size = 1
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// Validate checks every section against its struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := time.LoadLocation(c.Backend.Timezone); err != nil {
		return fmt.Errorf("invalid configuration: backend.timezone %q: %w", c.Backend.Timezone, err)
	}
	return nil
}

func intPtr(n int) *int { return &n }
