package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"hospital-iot-backend/config"
	"hospital-iot-backend/internal/api"
	"hospital-iot-backend/internal/checkin"
	"hospital-iot-backend/internal/db"
	"hospital-iot-backend/internal/logs"
	"hospital-iot-backend/internal/store"
	"hospital-iot-backend/internal/ticket"
)

func main() {
	logger := logs.Logger

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	logs.Init(logs.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	logger.Infof("configuration loaded successfully from %s", configPath)

	if !logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}

	loc := cfg.Server.Location()
	appStore := store.NewGormStore(gormDB)
	engine := ticket.NewEngine(appStore, loc)
	svc := checkin.NewService(appStore, engine, checkin.Options{
		Location:   loc,
		Timeout:    cfg.Database.CheckinTimeout,
		MaxRetries: cfg.Database.MaxRetries,
	})

	// Initialize router
	router := api.NewRouter(api.NewHandler(appStore, svc, engine, loc), api.RouterOptions{
		RateLimitPerSec: cfg.Server.RateLimitPerSec,
		RateBurst:       cfg.Server.RateBurst,
		CacheTTL:        time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Infof("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Info("shutdown signal received, stopping server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	if sqlDB, err := gormDB.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("server gracefully stopped")
}
