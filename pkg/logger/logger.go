// Package logger builds the zap loggers used across the service.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a production sugared logger tagged with the service name.
// It falls back to a no-op logger if zap cannot be built.
func New(service string) *zap.SugaredLogger {
	log, err := NewWithLevel(service, "info", false)
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return log
}

// NewWithLevel returns a sugared logger at the given level. Development
// loggers write human readable console output with stack traces on warnings.
func NewWithLevel(service, level string, development bool) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}

	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.InitialFields = map[string]any{"service": service}

	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("error building logger: %w", err)
	}

	return log.Sugar(), nil
}
