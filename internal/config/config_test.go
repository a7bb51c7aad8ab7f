package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 3000\n"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "movieSystem.sid", cfg.Session.CookieName)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "test", cfg.Seed.Username)
	assert.Equal(t, "admin", cfg.Seed.Role)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.False(t, cfg.Server.IsProduction())
	assert.False(t, cfg.Auth.TokensEnabled())
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 3000\ndatabase:\n  driver: sqlite\n")
	t.Setenv("MARQUEE_SERVER_PORT", "8081")
	t.Setenv("MARQUEE_SERVER_ENVIRONMENT", "production")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.True(t, cfg.Server.IsProduction())
	assert.Equal(t, "0.0.0.0:8081", cfg.Server.Addr())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(writeConfig(t, "server:\n  port: 3000\n"))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{
			name:    "invalid port",
			modify:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "unknown driver",
			modify:  func(c *Config) { c.Database.Driver = "mysql" },
			wantErr: "database.driver",
		},
		{
			name:    "postgres without host",
			modify:  func(c *Config) { c.Database.Driver = "postgres"; c.Database.Host = "" },
			wantErr: "database.host",
		},
		{
			name:    "short session key",
			modify:  func(c *Config) { c.Session.EncryptionKey = "abcd" },
			wantErr: "session.encryption_key",
		},
		{
			name:    "short token secret",
			modify:  func(c *Config) { c.Auth.TokenSecret = "secret" },
			wantErr: "auth.token_secret",
		},
		{
			name:    "unknown seed role",
			modify:  func(c *Config) { c.Seed.Role = "owner" },
			wantErr: "seed.role",
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "marquee", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=marquee sslmode=disable", c.DSN())
	assert.False(t, c.IsEmbedded())
}
