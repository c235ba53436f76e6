// Package logging builds the structured logger used across the botstrap
// CLI. All log output goes to stderr: stdout is reserved for command
// output (text or JSON), so logs never corrupt machine-readable results.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console-encoded zap logger writing to stderr.
// When verbose is true the level drops to Debug, which is how the
// --verbose flag exposes step-by-step bootstrap diagnostics.
func New(verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = "" // timestamps add noise to interactive CLI runs

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		level,
	)
	return zap.New(core)
}

// Nop returns a logger that discards everything. Library packages accept
// a *zap.Logger and tests pass this to keep output quiet.
func Nop() *zap.Logger {
	return zap.NewNop()
}
