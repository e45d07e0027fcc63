package config

import (
	"fmt"

	"github.com/chazu/liftplan/pkg/analysis"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func (l LogConfig) validate() error {
	if _, err := zapcore.ParseLevel(l.Level); err != nil {
		return &analysis.ConfigurationError{Field: "log level", Value: l.Level, Reason: err.Error()}
	}
	switch l.Format {
	case "console", "json":
		return nil
	default:
		return &analysis.ConfigurationError{Field: "log format", Value: l.Format, Reason: "must be console or json"}
	}
}

// NewLogger builds a zap logger writing to stderr at the configured level
// and encoding.
func (l LogConfig) NewLogger() (*zap.Logger, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}
	zapConfig := zap.NewProductionConfig()
	level, _ := zap.ParseAtomicLevel(l.Level)
	zapConfig.Level = level
	zapConfig.Encoding = l.Format
	if l.Format == "console" {
		zapConfig.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	zapConfig.OutputPaths = []string{"stderr"}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("config: build logger: %w", err)
	}
	return logger, nil
}
