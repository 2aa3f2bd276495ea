// Package logging provides centralized structured logging for parley
// daemons. It wraps zap.Logger with configurable level, output streams, and
// rotated file logging.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config represents the logging section of the daemon config file.
type Config struct {
	Level      string `mapstructure:"level" yaml:"level"`             // "debug", "info", "warn", "error"
	ToStdout   bool   `mapstructure:"to_stdout" yaml:"to_stdout"`     // Enable output to stdout
	ToStderr   bool   `mapstructure:"to_stderr" yaml:"to_stderr"`     // Enable output to stderr
	ToFile     bool   `mapstructure:"to_file" yaml:"to_file"`         // Enable output to file
	FilePath   string `mapstructure:"file" yaml:"file"`               // Log file path, e.g. /var/log/chatd.log
	MaxSizeMB  int    `mapstructure:"max_size" yaml:"max_size"`       // Max size before rotation (in MB)
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`         // Max age of logs (in days)
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"` // Number of rotated backups to keep
	Compress   bool   `mapstructure:"compress" yaml:"compress"`       // Gzip compress old log files
}

// Init builds a sugared logger from cfg. With no outputs enabled it falls
// back to stdout so a daemon is never silent by accident.
func Init(cfg Config) (*zap.SugaredLogger, error) {
	var cores []zapcore.Core

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encoderCfg)

	level := zapcore.InfoLevel
	_ = level.Set(cfg.Level) // invalid level: stay at info

	if cfg.ToStdout {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level))
	}

	if cfg.ToStderr {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), level))
	}

	if cfg.ToFile && cfg.FilePath != "" {
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
		cores = append(cores, zapcore.NewCore(encoder, writer, level))
	}

	if len(cores) == 0 {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return logger.Sugar(), nil
}
