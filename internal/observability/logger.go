// Package observability builds the application's zap loggers. Two profiles
// exist: a plain console logger for CLI commands and a structured server
// logger that tees colored console output with an optional rotating JSON
// file sink.
package observability

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the server logger.
type Options struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string

	// Quiet disables logging entirely.
	Quiet bool

	// File, when set, adds a rotating JSON sink at this path.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// NewServerLogger builds the logger used while serving requests.
func NewServerLogger(opts Options) *zap.Logger {
	if opts.Quiet {
		return zap.NewNop()
	}

	level := parseLevel(opts.Level)
	cores := []zapcore.Core{consoleCore(level)}

	if opts.File != "" {
		sink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		})
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), sink, level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zapcore.ErrorLevel))
}

// NewCLILogger builds a terse console logger for one-shot commands.
func NewCLILogger(verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = zapcore.OmitKey
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level)
	return zap.New(core)
}

func consoleCore(level zapcore.Level) zapcore.Core {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	return zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level)
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "trace", "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
