// Package logging wires up the process-wide slog logger shared by the
// client library and the bankd server.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config selects the handler the default logger is built with.
type Config struct {
	// Level is the minimum severity that gets emitted.
	Level slog.Level
	// JSON switches from the text handler to the JSON one.
	JSON bool
	// Output receives the log stream; nil means os.Stderr.
	Output io.Writer
}

// DefaultConfig builds a text-handler config at the severity named by the
// LOG_LEVEL environment variable (DEBUG, INFO, WARN, ERROR; unset or
// unrecognized means INFO).
func DefaultConfig() Config {
	level := slog.LevelInfo
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level = parseLevel(v)
	}

	return Config{
		Level:  level,
		Output: os.Stderr,
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup builds the logger described by cfg, installs it as the slog
// default and returns it.
func Setup(cfg Config) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}
