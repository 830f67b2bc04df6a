package logger

import (
	"fmt"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileConfig describes an optional rotated log file. Empty Path disables it.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// NewLogger creates a zap logger for the given environment.
// prod uses JSON output, local/dev use colored console output.
// levelOverride (if non-empty) overrides the log level: debug, info, warn, error.
func NewLogger(env string, levelOverride ...string) (*zap.Logger, error) {
	level := ""
	if len(levelOverride) > 0 {
		level = levelOverride[0]
	}
	return NewWithFile(env, level, FileConfig{})
}

// NewWithFile is NewLogger that also writes JSON lines to a rotated file.
func NewWithFile(env, level string, file FileConfig) (*zap.Logger, error) {
	var cfg zap.Config
	switch env {
	case "prod":
		cfg = zap.NewProductionConfig()
	case "local", "dev", "docker", "test":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown environment %q for logger", env)
	}

	if level != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if file.Path != "" {
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(rotator(file)),
			cfg.Level,
		)
		opts = append(opts, zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, fileCore)
		}))
	}

	l, err := cfg.Build(opts...)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}

func rotator(f FileConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   f.Path,
		MaxSize:    f.MaxSizeMB,
		MaxBackups: f.MaxBackups,
		MaxAge:     f.MaxAgeDays,
		Compress:   f.Compress,
	}
}
