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

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  dsn: "file.db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Server.CacheTTLSeconds)
	assert.Equal(t, "Asia/Jakarta", cfg.Server.Timezone)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 5*time.Second, cfg.Database.CheckinTimeout)
	assert.Equal(t, 3, cfg.Database.MaxRetries)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_KeepsExplicitZeros(t *testing.T) {
	path := writeConfig(t, `
server:
  rate_limit_per_sec: 0
  cache_ttl_seconds: 0
database:
  driver: sqlite
  dsn: "file.db"
  max_retries: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Zero(t, cfg.Server.RateLimitPerSec)
	assert.Zero(t, cfg.Server.CacheTTLSeconds)
	assert.Zero(t, cfg.Database.MaxRetries)
	assert.Equal(t, 20, cfg.Server.RateBurst, "omitted keys keep their defaults")
}

func TestLoad_RejectsUnusableZeros(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"rate burst", "server:\n  rate_burst: 0\ndatabase:\n  dsn: x\n"},
		{"checkin timeout", "database:\n  dsn: x\n  checkin_timeout_ms: 0\n"},
		{"port", "server:\n  port: 0\ndatabase:\n  dsn: x\n"},
		{"negative retries", "database:\n  dsn: x\n  max_retries: -1\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvOverridesDSN(t *testing.T) {
	t.Setenv("DATABASE_DSN", "override.db")
	path := writeConfig(t, `
database:
  driver: sqlite
  dsn: "file.db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "override.db", cfg.Database.DSN)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: oracle
  dsn: "x"
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RequiresDSN(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLocation_FallsBackToUTC(t *testing.T) {
	sc := ServerConfig{Timezone: "Nowhere/Invalid"}
	assert.Equal(t, time.UTC, sc.Location())
}
