// Package logs owns the process-wide structured logger.
package logs

import (
	"io"
	"log"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options configures the logger.
type Options struct {
	Level  string
	Format string
	File   string
}

// Logger is the shared application logger. It is usable before Init.
var Logger = logrus.New()

// Init configures Logger from opts. Unknown levels fall back to info.
func Init(opts Options) {
	level, err := logrus.ParseLevel(strings.ToLower(opts.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	Logger.SetLevel(level)

	switch strings.ToLower(opts.Format) {
	case "json":
		Logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var out io.Writer = os.Stdout
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			Logger.Warnf("cannot open log file %s: %v; logging to stdout", opts.File, err)
		} else {
			out = io.MultiWriter(os.Stdout, f)
		}
	}
	Logger.SetOutput(out)

	// Route the standard library logger through logrus as well.
	log.SetFlags(0)
	log.SetOutput(Logger.WriterLevel(logrus.InfoLevel))
}
