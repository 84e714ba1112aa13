// Package logging builds the diagnostics logger. Test results never go
// through it; they are printed by the reporting sinks.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production logger writing to stderr. Only warnings and errors
// are shown until SetVerbose raises the level.
func New() (*zap.Logger, zap.AtomicLevel, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true

	logger, err := config.Build()
	if err != nil {
		return nil, config.Level, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, config.Level, nil
}

// SetVerbose switches between debug and warning output.
func SetVerbose(level zap.AtomicLevel, verbose bool) {
	if verbose {
		level.SetLevel(zapcore.DebugLevel)
		return
	}
	level.SetLevel(zapcore.WarnLevel)
}
