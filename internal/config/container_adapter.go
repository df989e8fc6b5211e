package config

import (
	"github.com/garyjia/possession-response/internal/container"
)

// ToContainerConfig converts the loaded Config to a container.Config
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
		},
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Session: container.SessionConfig{
			Store:        c.Session.Store,
			CookieName:   c.Session.CookieName,
			TTL:          c.Session.TTL,
			ReapInterval: c.Session.ReapInterval,
			Secure:       c.Session.Secure,
			Secret:       c.Session.Secret,
		},
		CaseAPI: container.CaseAPIConfig{
			BaseURL:       c.CaseAPI.BaseURL,
			Token:         c.CaseAPI.Token,
			Timeout:       c.CaseAPI.Timeout,
			MaxRetries:    c.CaseAPI.MaxRetries,
			RetryInterval: c.CaseAPI.RetryInterval,
			RateLimit:     c.CaseAPI.RateLimit,
			RateBurst:     c.CaseAPI.RateBurst,
			FixturePath:   c.CaseAPI.FixturePath,
		},
		Journey: container.JourneyConfig{
			ConditionTimeout: c.Journey.ConditionTimeout,
		},
	}
}
