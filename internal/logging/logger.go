// Package logging builds the zap loggers used by the daemon.
//
// Production mode writes JSON lines; development mode writes colored console
// output. Components derive named children:
//
//	logger, level, err := logging.NewWithLevel(logging.FromSettings(settings.Log))
//	sup := supervisor.New(supervisor.Options{Logger: logger.Named("supervisor")})
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/neustart-io/neustart/internal/models"
)

// Config defines logger configuration.
type Config struct {
	Level       string // "debug", "info", "warn", "error"
	Development bool
	OutputPaths []string
}

// DefaultConfig returns production-ready logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:       "info",
		Development: false,
		OutputPaths: []string{"stderr"},
	}
}

// FromSettings converts the log section of settings into a Config.
func FromSettings(s models.LogConfig) Config {
	cfg := DefaultConfig()
	if s.Level != "" {
		cfg.Level = s.Level
	}
	cfg.Development = s.Development
	return cfg
}

// New creates a new logger with the provided configuration.
func New(cfg Config) (*zap.Logger, error) {
	logger, _, err := NewWithLevel(cfg)
	return logger, err
}

// NewWithLevel is New, also returning the level handle so the level can
// be changed while the logger is in use.
func NewWithLevel(cfg Config) (*zap.Logger, zap.AtomicLevel, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}
	atomic := zap.NewAtomicLevelAt(level)

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	zapCfg := zap.Config{
		Level:             atomic,
		Development:       cfg.Development,
		Encoding:          encodingFormat(cfg.Development),
		EncoderConfig:     encoderConfig(cfg.Development),
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     false,
		DisableStacktrace: !cfg.Development,
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}
	return logger, atomic, nil
}

// SetLevel parses level and applies it to handle.
func SetLevel(handle zap.AtomicLevel, level string) error {
	l, err := parseLevel(level)
	if err != nil {
		return err
	}
	handle.SetLevel(l)
	return nil
}

// parseLevel converts string level to zapcore.Level.
func parseLevel(level string) (zapcore.Level, error) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, err
	}
	return l, nil
}

func encodingFormat(development bool) string {
	if development {
		return "console"
	}
	return "json"
}

func encoderConfig(development bool) zapcore.EncoderConfig {
	if development {
		return zapcore.EncoderConfig{
			TimeKey:        "T",
			LevelKey:       "L",
			NameKey:        "N",
			CallerKey:      "C",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "M",
			StacktraceKey:  "S",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		}
	}

	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}
