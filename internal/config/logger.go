package config

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logging settings read from the root config.
const (
	logLevelKey  = "logging.level"
	logFormatKey = "logging.format"
)

// NewLogger builds the process logger. The level defaults to info and
// the format to json; "console" selects the human-readable encoder for
// local runs.
func NewLogger(v *viper.Viper) (*zap.Logger, error) {
	lvl := v.GetString(logLevelKey)
	if lvl == "" {
		lvl = "info"
	}
	level, err := zapcore.ParseLevel(lvl)
	if err != nil {
		return nil, fmt.Errorf("parse %s %q: %w", logLevelKey, lvl, err)
	}

	var cfg zap.Config
	switch format := v.GetString(logFormatKey); format {
	case "", "json":
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unsupported %s %q (want json or console)", logFormatKey, format)
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	return cfg.Build()
}
