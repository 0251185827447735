// Package logger builds the zap loggers used by the binaries and sanitizes untrusted
// strings before they reach a log line.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log output formats accepted by LOG_FORMAT
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options selects how a logger is built
type Options struct {
	// Service is added to every entry as "service"; empty omits it
	Service string
	// Debug lowers the level so per-mutation events become visible
	Debug bool
	// Format is FormatJSON (default) or FormatConsole
	Format string
}

// New builds a logger writing to stderr. JSON entries use ts/level/msg keys with
// ISO8601 times; console output is the human-readable form for local runs.
func New(opts Options) (*zap.Logger, error) {
	var config zap.Config
	switch strings.ToLower(opts.Format) {
	case "", FormatJSON:
		config = zap.NewProductionConfig()
		config.EncoderConfig = zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		}
	case FormatConsole:
		config = zap.NewDevelopmentConfig()
		config.DisableStacktrace = !opts.Debug
	default:
		return nil, fmt.Errorf("unknown log format %q (want %s or %s)", opts.Format, FormatJSON, FormatConsole)
	}

	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if opts.Debug {
		config.Level.SetLevel(zapcore.DebugLevel)
	}
	if opts.Service != "" {
		config.InitialFields = map[string]interface{}{"service": opts.Service}
	}
	return config.Build()
}

// Sync flushes any buffered log entries. Safe to call on a nil logger.
func Sync(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}
	return logger.Sync()
}
