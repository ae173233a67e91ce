// Command checkin-replay posts a scripted sequence of device check-ins to a
// running server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"hospital-iot-backend/internal/logs"
	"hospital-iot-backend/internal/replay"
)

func main() {
	var (
		scriptPath = flag.StringP("script", "s", "scripts/ward-demo.yaml", "YAML event script to replay")
		endpoint   = flag.StringP("endpoint", "e", "", "check-in URL, overrides the script's endpoint")
		workers    = flag.IntP("workers", "w", 4, "number of parallel workers")
		timeout    = flag.Duration("timeout", 10*time.Second, "per-request timeout")
		proxy      = flag.String("proxy", "", "HTTP proxy URL")
		logLevel   = flag.String("log-level", "info", "log level")
		logFormat  = flag.String("log-format", "text", "log format: text or json")
	)
	flag.Parse()

	logs.Init(logs.Options{Level: *logLevel, Format: *logFormat})
	logger := logs.Logger

	script, err := replay.LoadScript(*scriptPath)
	if err != nil {
		logger.Fatalf("failed to load script: %v", err)
	}
	if *endpoint != "" {
		script.Endpoint = *endpoint
	}
	if script.Endpoint == "" {
		script.Endpoint = "http://localhost:5000/api/v1/checkin"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Infof("replaying %d events against %s with %d workers", len(script.Events), script.Endpoint, *workers)
	stats := replay.Run(ctx, script, replay.NewClient(script.Endpoint, *timeout, *proxy), *workers)
	logger.WithField("sent", stats.Sent).
		WithField("failed", stats.Failed).
		WithField("tickets", stats.Tickets).
		Info("replay finished")

	if stats.Failed > 0 {
		os.Exit(1)
	}
}
