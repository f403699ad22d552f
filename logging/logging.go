// Package logging builds the zap logger shared by the pool, palette and frame driver
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects level and destination
type Config struct {
	Level      string `yaml:"level"`       // debug, info, warn, error, off
	File       string `yaml:"file"`        // Empty writes to stderr
	ShowCaller bool   `yaml:"show_caller"` // Include file:line
}

// ParseLevel maps a level name to a zap level; ok is false for "off" and unknown names
func ParseLevel(name string) (zapcore.Level, bool, error) {
	switch strings.ToLower(name) {
	case "", "off", "none":
		return zapcore.InfoLevel, false, nil
	case "debug":
		return zapcore.DebugLevel, true, nil
	case "info":
		return zapcore.InfoLevel, true, nil
	case "warn":
		return zapcore.WarnLevel, true, nil
	case "error":
		return zapcore.ErrorLevel, true, nil
	}
	return zapcore.InfoLevel, false, fmt.Errorf("unknown log level %q", name)
}

// New returns a sugared logger for cfg; level "off" yields a no-op logger
func New(cfg Config) (*zap.SugaredLogger, error) {
	level, enabled, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return zap.NewNop().Sugar(), nil
	}

	zc := zap.NewDevelopmentConfig()
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.TimeKey = ""
	zc.EncoderConfig.StacktraceKey = ""
	if !cfg.ShowCaller {
		zc.EncoderConfig.CallerKey = ""
	}
	if cfg.File != "" {
		zc.OutputPaths = []string{cfg.File}
		zc.ErrorOutputPaths = []string{cfg.File}
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Sugar(), nil
}
