// Package log provides JSON-lines structured logging for sieve.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config configures the structured logger.
type Config struct {
	// Output is the writer for log output (default: os.Stderr)
	Output io.Writer

	// Level is the minimum log level (default: LevelInfo)
	Level slog.Level

	// Debug enables debug level logging (overrides Level)
	Debug bool
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		Output: os.Stderr,
		Level:  slog.LevelInfo,
	}
}

// New creates a JSON-lines logger:
//
//	{"ts":"2026-01-15T10:30:00Z","level":"INFO","msg":"search completed","generation":3}
//
// Log levels:
//   - debug: generations, producer spawns and exits (SIEVE_DEBUG=1)
//   - info: startup, producers exiting without output
//   - warn: slow producers, failed searches, history write failures
//   - error: fatal issues
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	level := cfg.Level
	if cfg.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				a.Key = "ts"
			}
			return a
		},
	}
	return slog.New(slog.NewJSONHandler(output, opts))
}

// NewFromEnv creates a logger configured from environment variables.
// SIEVE_DEBUG=1 enables debug logging.
func NewFromEnv() *slog.Logger {
	cfg := DefaultConfig()
	cfg.Debug = DebugEnabled()
	return New(cfg)
}

// DebugEnabled reports whether SIEVE_DEBUG=1 is set.
func DebugEnabled() bool {
	return os.Getenv("SIEVE_DEBUG") == "1"
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps a config level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// OpenFile opens path for appending, creating parent directories. The
// interactive picker owns the terminal, so it logs to a file instead of
// stderr.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// StartupInfo holds information logged when a command starts.
type StartupInfo struct {
	Version     string
	Command     string
	ConfigPath  string
	HistoryPath string
	Source      string
	PID         int
}

// LogStartup logs command startup information.
func LogStartup(logger *slog.Logger, info StartupInfo) {
	logger.Info("sieve started",
		"version", info.Version,
		"command", info.Command,
		"config_path", info.ConfigPath,
		"history_path", info.HistoryPath,
		"source", info.Source,
		"pid", info.PID,
	)
}

// LogSearchFailed logs a search that could not be started.
func LogSearchFailed(logger *slog.Logger, source string, err error) {
	logger.Warn("search failed", "source", source, "error", err)
}

// LogHistoryError logs a failed history operation.
func LogHistoryError(logger *slog.Logger, operation string, err error) {
	logger.Warn("history error", "operation", operation, "error", err)
}
