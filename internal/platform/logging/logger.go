// Package logging builds the process logger. Module code logs through
// log/slog; zap is the backend.
package logging

import (
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// Logger owns the zap backend so the process can flush it on shutdown.
type Logger struct {
	*slog.Logger
	zap *zap.Logger
}

// New builds a production (json, sampled, ISO8601) or development (console,
// colored levels) logger depending on environment.
func New(environment string, level string, format string) (*Logger, error) {
	var config zap.Config
	if strings.EqualFold(environment, "production") {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.DisableStacktrace = true
		config.Sampling = &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		}
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.Level = zap.NewAtomicLevelAt(parseLevel(level))
	if strings.EqualFold(format, "json") {
		config.Encoding = "json"
		config.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	} else {
		config.Encoding = "console"
	}
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	backend, err := config.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{
		Logger: slog.New(zapslog.NewHandler(backend.Core())),
		zap:    backend,
	}, nil
}

// NewNop discards everything. Tests use it to keep output quiet.
func NewNop() *Logger {
	backend := zap.NewNop()
	return &Logger{
		Logger: slog.New(zapslog.NewHandler(backend.Core())),
		zap:    backend,
	}
}

// Sync flushes buffered entries.
func (l *Logger) Sync() {
	if l == nil || l.zap == nil {
		return
	}
	_ = l.zap.Sync()
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
