package db

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hospital-iot-backend/config"
	"hospital-iot-backend/internal/logs"
	"hospital-iot-backend/internal/model"
)

// Init opens the configured database, sizes the pool and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := Open(cfg.Driver, cfg.DSN, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// SQLite has a single writer; one connection turns lock contention
	// into pool waits instead of SQLITE_BUSY errors.
	if cfg.Driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	logs.Logger.WithField("driver", cfg.Driver).Info("database initialization complete")
	return db, nil
}

// Open connects to a database by driver name: "postgres", "mysql" or "sqlite".
func Open(driver, dsn string, gormCfg *gorm.Config) (*gorm.DB, error) {
	if gormCfg == nil {
		gormCfg = &gorm.Config{}
	}
	switch driver {
	case "postgres":
		// host=localhost user=... dbname=hospital_iot_db sslmode=disable
		return gorm.Open(postgres.Open(dsn), gormCfg)
	case "mysql":
		// user:pass@tcp(127.0.0.1:3306)/hospital_iot_db?parseTime=true&charset=utf8mb4
		return gorm.Open(mysql.Open(dsn), gormCfg)
	case "sqlite":
		return gorm.Open(sqlite.Open(sqliteDSN(dsn)), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// Migrate creates or updates the schema for all models.
func Migrate(db *gorm.DB) error {
	logs.Logger.Debug("running database migrations")
	if err := db.AutoMigrate(
		&model.Device{},
		&model.HistoryRecord{},
		&model.Ticket{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}

// sqliteDSN adds a busy timeout unless the caller already chose one.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_busy_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_busy_timeout=5000"
}

func logLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
