// Package logging holds the process-wide structured logger.
//
// Library code fetches the logger with [Logger] each time it needs one instead
// of caching it, so that a program can call [Init] or [SetLogger] at any point
// during startup. Until then everything is discarded.
package logging

import (
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var current atomic.Pointer[zap.SugaredLogger]

func init() {
	current.Store(zap.NewNop().Sugar())
}

// Logger returns the process-wide logger.
func Logger() *zap.SugaredLogger {
	return current.Load()
}

// SetLogger replaces the process-wide logger. Passing nil restores the no-op
// logger.
func SetLogger(logger *zap.SugaredLogger) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	current.Store(logger)
}

// ParseLevel converts a level name like "debug" or "WARN" into a zap level. An
// empty string means "info".
func ParseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var parsed zapcore.Level
	err := parsed.UnmarshalText([]byte(strings.ToLower(level)))
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return parsed, nil
}

// Init builds a logger that writes to stderr and installs it as the
// process-wide logger. JSON output is meant for machines; the console format is
// meant for people.
func Init(level string, jsonOutput bool) (*zap.SugaredLogger, error) {
	parsedLevel, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	if jsonOutput {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.DisableStacktrace = true
	}
	cfg.Level = zap.NewAtomicLevelAt(parsedLevel)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	sugared := logger.Sugar()
	SetLogger(sugared)
	return sugared, nil
}
