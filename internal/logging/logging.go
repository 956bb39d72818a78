// Package logging configures kdex's process-wide structured logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kdex-dev/kdex/internal/config"
)

// Options configures the logger.
type Options struct {
	Level         string // debug, info, warn, error
	FilePath      string // empty disables file logging
	WriteToStderr bool
}

// DefaultOptions returns the default logging setup: info level and a log
// file under the config directory. Stderr is left clean for command output;
// callers flip WriteToStderr on for --debug.
func DefaultOptions() Options {
	path, _ := DefaultLogPath()
	return Options{
		Level:         "info",
		FilePath:      path,
		WriteToStderr: false,
	}
}

// DefaultLogPath returns <config dir>/kdex.log.
func DefaultLogPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "kdex.log"), nil
}

// Setup builds a *slog.Logger per Options and returns it with a close
// function for the underlying file handle (no-op if file logging is off).
func Setup(opts Options) (*slog.Logger, func(), error) {
	var writers []io.Writer
	closeFn := func() {}

	if opts.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0o755); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, f)
		closeFn = func() { _ = f.Close() }
	}
	if opts.WriteToStderr || len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}

	handler := slog.NewJSONHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level: levelFromString(opts.Level),
	})
	return slog.New(handler), closeFn, nil
}

func levelFromString(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
