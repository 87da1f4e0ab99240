// Package logging installs the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	EnvLevel = "LOG_LEVEL"
	EnvFile  = "LOG_FILE"
)

// ParseLevel maps debug|info|warn|warning|error to a slog level.
// Unknown names yield def.
func ParseLevel(name string, def slog.Level) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return def
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup installs the default logger at level, writing to file (appended)
// or to stderr when file is empty. A .json file gets the JSON handler.
// The returned Closer releases the file.
func Setup(level slog.Level, file string) (io.Closer, error) {
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		w, closer = f, f
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if strings.EqualFold(filepath.Ext(file), ".json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
	return closer, nil
}

// SetupFromEnv calls Setup with LOG_LEVEL and LOG_FILE, using def when
// LOG_LEVEL is unset.
func SetupFromEnv(def slog.Level) (io.Closer, error) {
	return Setup(ParseLevel(os.Getenv(EnvLevel), def), os.Getenv(EnvFile))
}
