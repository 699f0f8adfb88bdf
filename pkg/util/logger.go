package util

import (
	"io"
	"log/slog"
	"os"

	"github.com/go-logr/logr"
)

var logger logr.Logger

// LogOptions controls the global logger
type LogOptions struct {
	Verbose bool
	// JSON switches the handler to slog's JSON output, used when another
	// process consumes the logs
	JSON bool
}

// InitLogger initializes the global logger with the specified log level
func InitLogger(verbose bool) {
	InitLoggerTo(os.Stderr, LogOptions{Verbose: verbose})
}

// InitLoggerTo initializes the global logger writing to w. The stdio view
// bridge owns stdout, so it keeps logs on stderr through this.
func InitLoggerTo(w io.Writer, opts LogOptions) {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	logger = logr.FromSlogHandler(handler)
	slog.SetDefault(slog.New(handler))
}

// GetLogger returns the global logger instance
func GetLogger() logr.Logger {
	if logger.GetSink() == nil {
		InitLogger(false)
	}
	return logger
}

// ComponentLogger returns the global logger named after a component
func ComponentLogger(name string) logr.Logger {
	return GetLogger().WithName(name)
}
