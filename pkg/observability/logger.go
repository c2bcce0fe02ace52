// Package observability provides logging and tracing setup shared by all
// binaries.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerOptions controls how the root logger is built.
type LoggerOptions struct {
	Level  string // debug, info, warn, error
	Format string // json or console
}

// NewLogger creates a structured logger appropriate for the environment.
// The returned atomic level can be adjusted at runtime; the config watcher
// uses it to apply log-level changes without a restart.
func NewLogger(opts LoggerOptions) (*zap.Logger, zap.AtomicLevel, error) {
	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	var cfg zap.Config
	if opts.Format == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := cfg.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("failed to create logger: %w", err)
	}

	return logger, cfg.Level, nil
}
