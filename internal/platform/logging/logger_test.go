package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARN":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for raw, want := range cases {
		if got := parseLevel(raw); got != want {
			t.Fatalf("parseLevel(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestNewBuildsBothFormats(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		logger, err := New(env, "info", "json")
		if err != nil {
			t.Fatalf("new %s logger: %v", env, err)
		}
		logger.Info("hello", "event", "logging_test")
		logger.Sync()
	}
	NewNop().Info("discarded")
}
