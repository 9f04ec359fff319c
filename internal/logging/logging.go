// Package logging builds the zap logger shared by every component.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the logger flavour.
type Options struct {
	// Debug lowers the level from info to debug.
	Debug bool

	// Format is "console" for coloured human output or "json" for structured output.
	// Default: console
	Format string

	// OutputPaths overrides where logs are written (e.g. a file while the TUI owns the terminal).
	// Default: stderr
	OutputPaths []string
}

// New builds a logger from opts.
func New(opts Options) (*zap.Logger, error) {
	var lc zap.Config
	switch opts.Format {
	case "", "console":
		lc = zap.NewDevelopmentConfig()
		lc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		lc.Development = false
	case "json":
		lc = zap.NewProductionConfig()
		lc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}
	lc.Level = zap.NewAtomicLevelAt(level)

	if len(opts.OutputPaths) > 0 {
		lc.OutputPaths = opts.OutputPaths
		if opts.Format == "" || opts.Format == "console" {
			lc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		}
	}

	logger, err := lc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
