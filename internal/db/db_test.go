package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-iot-backend/config"
)

func TestInit_SQLiteMigratesSchema(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      filepath.Join(t.TempDir(), "iot.db"),
		LogLevel: "silent",
	}

	gormDB, err := Init(cfg)
	require.NoError(t, err)
	sqlDB, _ := gormDB.DB()
	defer sqlDB.Close()

	for _, table := range []string{"devices", "device_history", "tickets"} {
		assert.True(t, gormDB.Migrator().HasTable(table), "table %s should exist", table)
	}
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "dsn", nil)
	assert.EqualError(t, err, "unsupported database driver: oracle")
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "a.db?_busy_timeout=5000", sqliteDSN("a.db"))
	assert.Equal(t, "file:a.db?mode=rwc&_busy_timeout=5000", sqliteDSN("file:a.db?mode=rwc"))
	assert.Equal(t, "a.db?_busy_timeout=100", sqliteDSN("a.db?_busy_timeout=100"))
}
