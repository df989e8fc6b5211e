package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_DefaultsAndFile(t *testing.T) {
	t.Setenv("SESSION_SECRET", "from-env")
	path := writeConfig(t, `
server:
  port: 9000
case_api:
  base_url: http://cases.local
journey:
  condition_timeout: 2s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "http://cases.local", cfg.CaseAPI.BaseURL)
	assert.Equal(t, 3, cfg.CaseAPI.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Journey.ConditionTimeout)
	assert.Equal(t, StoreSQLite, cfg.Session.Store)
	assert.Equal(t, "pr_session", cfg.Session.CookieName)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "from-env", cfg.Session.Secret)
	assert.Equal(t, "json", cfg.Logger.Format)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("CASE_API_TOKEN", "token-123")
	t.Setenv("SERVER_PORT", "9443")
	path := writeConfig(t, `
session:
  store: memory
case_api:
  fixture_path: cases.json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9443, cfg.Server.Port)
	assert.Equal(t, "token-123", cfg.CaseAPI.Token)
	assert.Equal(t, StoreMemory, cfg.Session.Store)
	assert.Equal(t, "cases.json", cfg.CaseAPI.FixturePath)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	path := writeConfig(t, `
case_api:
  base_url: http://cases.local
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.secret")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Path: "data/test.db"},
			Session:  SessionConfig{Store: StoreSQLite, TTL: time.Hour, Secret: "s"},
			CaseAPI:  CaseAPIConfig{BaseURL: "http://cases.local"},
			Journey:  JourneyConfig{ConditionTimeout: time.Second},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"unknown store", func(c *Config) { c.Session.Store = "redis" }, "session.store"},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"memory without path", func(c *Config) { c.Session.Store = StoreMemory; c.Database.Path = "" }, ""},
		{"no case source", func(c *Config) { c.CaseAPI.BaseURL = "" }, "case_api"},
		{"zero ttl", func(c *Config) { c.Session.TTL = 0 }, "session.ttl"},
		{"zero condition timeout", func(c *Config) { c.Journey.ConditionTimeout = 0 }, "condition_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ToContainerConfig(t *testing.T) {
	cfg := Config{
		Server:  ServerConfig{Host: "127.0.0.1", Port: 8081},
		Session: SessionConfig{Store: StoreMemory, Secret: "s", TTL: time.Hour},
		CaseAPI: CaseAPIConfig{FixturePath: "cases.json", MaxRetries: 5},
		Journey: JourneyConfig{ConditionTimeout: time.Second},
	}

	cc := cfg.ToContainerConfig()
	assert.Equal(t, "127.0.0.1", cc.Server.Host)
	assert.Equal(t, StoreMemory, cc.Session.Store)
	assert.Equal(t, "cases.json", cc.CaseAPI.FixturePath)
	assert.Equal(t, 5, cc.CaseAPI.MaxRetries)
	assert.Equal(t, time.Second, cc.Journey.ConditionTimeout)
	assert.NoError(t, cc.Validate())
}
