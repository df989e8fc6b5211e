// Package config loads service configuration from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/garyjia/possession-response/internal/container"
)

// Form data store backends
const (
	StoreSQLite = container.StoreSQLite
	StoreMemory = container.StoreMemory
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Session  SessionConfig  `mapstructure:"session"`
	CaseAPI  CaseAPIConfig  `mapstructure:"case_api"`
	Journey  JourneyConfig  `mapstructure:"journey"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SessionConfig holds session cookie and storage configuration
type SessionConfig struct {
	Store        string        `mapstructure:"store"`
	CookieName   string        `mapstructure:"cookie_name"`
	TTL          time.Duration `mapstructure:"ttl"`
	ReapInterval time.Duration `mapstructure:"reap_interval"`
	Secure       bool          `mapstructure:"secure"`
	Secret       string        `mapstructure:"secret"`
}

// CaseAPIConfig holds case-management API configuration. When FixturePath
// is set, case data is served from that file instead of the API.
type CaseAPIConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Token         string        `mapstructure:"token"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetries    int           `mapstructure:"max_retries"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
	RateLimit     float64       `mapstructure:"rate_limit"`
	RateBurst     int           `mapstructure:"rate_burst"`
	FixturePath   string        `mapstructure:"fixture_path"`
}

// JourneyConfig holds flow resolution configuration
type JourneyConfig struct {
	ConditionTimeout time.Duration `mapstructure:"condition_timeout"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables. A .env file
// next to the working directory is applied to the environment first.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("database.path", "data/possession-response.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("session.store", StoreSQLite)
	v.SetDefault("session.cookie_name", "pr_session")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.reap_interval", 10*time.Minute)
	v.SetDefault("session.secure", true)

	v.SetDefault("case_api.timeout", 10*time.Second)
	v.SetDefault("case_api.max_retries", 3)
	v.SetDefault("case_api.retry_interval", 200*time.Millisecond)
	v.SetDefault("case_api.rate_limit", 50.0)
	v.SetDefault("case_api.rate_burst", 10)

	v.SetDefault("journey.condition_timeout", 5*time.Second)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds secrets to their environment variables
func bindEnvVars(v *viper.Viper) error {
	if err := v.BindEnv("case_api.token", "CASE_API_TOKEN"); err != nil {
		return err
	}
	return v.BindEnv("session.secret", "SESSION_SECRET")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	switch c.Session.Store {
	case StoreSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite session store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("session.store must be %q or %q", StoreSQLite, StoreMemory)
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("session.secret is required")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}

	if c.CaseAPI.BaseURL == "" && c.CaseAPI.FixturePath == "" {
		return fmt.Errorf("case_api.base_url or case_api.fixture_path is required")
	}

	if c.Journey.ConditionTimeout <= 0 {
		return fmt.Errorf("journey.condition_timeout must be positive")
	}

	return nil
}
