// Package testdb opens throwaway migrated SQLite databases for tests.
package testdb

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hospital-iot-backend/internal/db"
)

// Open returns a migrated database in t's temp dir, closed at cleanup.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	gormDB, err := db.Open("sqlite", filepath.Join(t.TempDir(), "test.db"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.Migrate(gormDB); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return gormDB
}
