package common

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LogConfig describes where and how the process logs.
type LogConfig struct {
	Level  string
	Format string
	// File is the log file path. Empty means stderr.
	File string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ParseLevel converts a configured level name into a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: invalid log level: %s", ErrInvalidConfig, level)
	}
}

// NewLogger builds the process logger. The returned closer must be closed at
// process exit; it flushes and releases the log file if one was opened.
func NewLogger(cfg LogConfig) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		if mkErr := os.MkdirAll(filepath.Dir(cfg.File), 0750); mkErr != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", mkErr)
		}
		f, openErr := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
		if openErr != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", openErr)
		}
		out = f
		closer = f
	}

	handler, err := newHandler(out, level, cfg.Format)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}

	return slog.New(handler), closer, nil
}

func newHandler(out io.Writer, level slog.Level, format string) (slog.Handler, error) {
	opts := &slog.HandlerOptions{Level: level}

	switch format {
	case "", "console":
		return slog.NewTextHandler(out, opts), nil
	case "json":
		return slog.NewJSONHandler(out, opts), nil
	default:
		return nil, fmt.Errorf("%w: invalid log format: %s", ErrInvalidConfig, format)
	}
}

// Discard returns a logger that drops every record. Used by tests and by
// components constructed without a logger.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OrDiscard returns logger, or a discarding logger when it is nil.
func OrDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return Discard()
	}
	return logger
}
