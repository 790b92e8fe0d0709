// Package logging builds the structured logger used by the DistroBoard CLI.
//
// Logs are JSON lines written to stderr, or to a size-rotated file when a
// file path is configured.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation settings.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 7
)

// Config describes the log destination and level.
type Config struct {
	Level      string // debug, info, warn or error (default info)
	File       string // empty logs to the fallback writer
	MaxSizeMB  int    // megabytes before rotation (default 10)
	MaxBackups int    // rotated files to keep (default 3)
	MaxAgeDays int    // days to keep rotated files (default 7)
	Compress   bool   // gzip rotated files
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q (expected debug, info, warn or error)", s)
	}
}

// New creates a JSON logger. When cfg.File is empty, logs go to fallback.
//
// The returned closer releases the log file and must be called on shutdown;
// it is a no-op when logging to fallback.
func New(cfg Config, fallback io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var (
		w      io.Writer = fallback
		closer io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		rotating := &lj.Logger{
			Filename:   cfg.File,
			MaxSize:    valOr(cfg.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: valOr(cfg.MaxBackups, DefaultMaxBackups),
			MaxAge:     valOr(cfg.MaxAgeDays, DefaultMaxAgeDays),
			Compress:   cfg.Compress,
		}
		w = rotating
		closer = rotating
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
