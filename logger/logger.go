// Package logger holds the process-wide structured logger.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a sugared zap logger that can be scoped to a service.
type Logger struct {
	*zap.SugaredLogger
}

// Sugar is the process-wide logger. It discards everything until New is called.
var Sugar = Logger{zap.NewNop().Sugar()}

// New replaces Sugar with a JSON logger at level. "NOOP" installs a logger
// that discards all output.
func New(level string) {
	if strings.EqualFold(level, "NOOP") {
		Sugar = Logger{zap.NewNop().Sugar()}
		return
	}

	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "json"
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		Sugar = Logger{zap.NewNop().Sugar()}
		return
	}
	Sugar = Logger{l.Sugar()}
}

// WithServiceName returns a child logger tagged with name.
func (l Logger) WithServiceName(name string) Logger {
	return Logger{l.Named(name).With("service", name)}
}

// OnExit flushes buffered log entries.
func OnExit() {
	_ = Sugar.Sync()
}
