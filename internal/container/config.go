// Package container provides dependency injection and lifecycle management
// for the possession response service.
package container

import (
	"fmt"
	"time"
)

// Form data store backends
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Session configuration
	Session SessionConfig

	// Case-management API configuration
	CaseAPI CaseAPIConfig

	// Journey configuration
	Journey JourneyConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host to bind to
	Host string

	// Port to listen on
	Port int

	// ReadTimeout for HTTP requests
	ReadTimeout time.Duration

	// WriteTimeout for HTTP responses
	WriteTimeout time.Duration
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration
}

// SessionConfig holds session settings.
type SessionConfig struct {
	// Store selects the form data backend, sqlite or memory
	Store string

	// CookieName is the name of the session cookie
	CookieName string

	// TTL is how long an idle session is kept
	TTL time.Duration

	// ReapInterval is how often idle sessions are removed
	ReapInterval time.Duration

	// Secure marks the cookie HTTPS-only
	Secure bool

	// Secret signs session cookies
	Secret string
}

// CaseAPIConfig holds case-management API settings.
type CaseAPIConfig struct {
	// BaseURL of the case-management API
	BaseURL string

	// Token is the bearer token sent to the API
	Token string

	// Timeout for a single API call
	Timeout time.Duration

	// MaxRetries is the number of attempts per lookup
	MaxRetries int

	// RetryInterval is the initial backoff between attempts
	RetryInterval time.Duration

	// RateLimit caps API requests per second, zero for no limit
	RateLimit float64

	// RateBurst is the request burst allowed above RateLimit
	RateBurst int

	// FixturePath serves case data from a JSON file instead of the API
	FixturePath string
}

// JourneyConfig holds flow resolution settings.
type JourneyConfig struct {
	// ConditionTimeout bounds a single route condition
	ConditionTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:            "data/possession-response.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Session: SessionConfig{
			Store:        StoreSQLite,
			CookieName:   "pr_session",
			TTL:          24 * time.Hour,
			ReapInterval: 10 * time.Minute,
			Secure:       true,
		},
		CaseAPI: CaseAPIConfig{
			Timeout:       10 * time.Second,
			MaxRetries:    3,
			RetryInterval: 200 * time.Millisecond,
			RateLimit:     50,
			RateBurst:     10,
		},
		Journey: JourneyConfig{
			ConditionTimeout: 5 * time.Second,
		},
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	switch c.Session.Store {
	case StoreSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown session store %q", c.Session.Store)
	}

	if c.Session.Secret == "" {
		return fmt.Errorf("session secret is required")
	}

	if c.CaseAPI.BaseURL == "" && c.CaseAPI.FixturePath == "" {
		return fmt.Errorf("case API base URL or fixture path is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	return nil
}
