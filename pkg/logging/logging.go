package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level represents a log level.
type Level = slog.Level

// Log levels.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Format represents the log output format.
type Format string

// Output formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Component names attached to records by For.
const (
	ComponentServer   = "server"
	ComponentPipeline = "pipeline"
	ComponentAdmin    = "admin"
	ComponentCache    = "cache"
	ComponentStore    = "store"
)

// Config holds logging configuration.
type Config struct {
	Level  Level
	Format Format

	// Output receives log records. Defaults to os.Stderr.
	Output io.Writer

	// Tee, when set, also receives every record as JSON.
	Tee io.Writer

	AddSource bool
}

// New creates a logger from cfg.
func New(cfg Config) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.Format == FormatJSON {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}
	if cfg.Tee != nil {
		handler = NewMultiHandler(handler, slog.NewJSONHandler(cfg.Tee, opts))
	}
	return slog.New(handler)
}

// Open builds the server logger from the configured level and format names.
// A non-empty file is opened for appending and tees every record as JSON;
// the returned close func releases it.
func Open(level, format string, out io.Writer, file string) (*slog.Logger, func() error, error) {
	cfg := Config{
		Level:  ParseLevel(level),
		Format: ParseFormat(format),
		Output: out,
	}
	if file == "" {
		return New(cfg), func() error { return nil }, nil
	}
	fh, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	cfg.Tee = fh
	return New(cfg), fh.Close, nil
}

// For tags log with the component that emits its records.
func For(log *slog.Logger, component string) *slog.Logger {
	return OrNop(log).With("component", component)
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OrNop returns log, or Nop() when log is nil.
func OrNop(log *slog.Logger) *slog.Logger {
	if log == nil {
		return Nop()
	}
	return log
}

// ParseLevel parses "debug", "info", "warn"/"warning" or "error" in any case.
// Anything else, including "", means LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// ParseFormat parses "text" or "json" in any case. Anything else means FormatText.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), string(FormatJSON)) {
		return FormatJSON
	}
	return FormatText
}
