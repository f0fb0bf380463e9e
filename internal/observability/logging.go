// Package observability wires structured logging for the CLI.
package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CLILogger is the process-wide logger for CLI commands. It defaults to a
// no-op logger so library code and tests stay silent until Init runs.
var CLILogger = zap.NewNop()

// Init builds the CLI logger. level is a zap level name ("debug", "info",
// "warn", "error"); structured selects JSON output instead of the console
// encoder.
func Init(level string, structured bool) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	if !structured {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	CLILogger = logger
	return nil
}

// Sync flushes buffered log entries. Call on process exit.
func Sync() {
	_ = CLILogger.Sync()
}
