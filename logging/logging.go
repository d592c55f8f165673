// Package logging contains the leveled logger used throughout this module.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging interface accepted by estimators and solvers. It is
// a structured, leveled logger backed by zap.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})

	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})

	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})

	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	Sublogger(name string) Logger
	AsZap() *zap.SugaredLogger
}

type impl struct {
	*zap.SugaredLogger
}

func (l *impl) Sublogger(name string) Logger {
	return &impl{l.SugaredLogger.Named(name)}
}

func (l *impl) AsZap() *zap.SugaredLogger {
	return l.SugaredLogger
}

// NewZapLoggerConfig returns the console logger config used by NewLogger.
// Stacktraces are disabled; levels are colored.
func NewZapLoggerConfig() zap.Config {
	return zap.Config{
		Level:    zap.NewAtomicLevelAt(zap.InfoLevel),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}

// NewLogger returns a new logger named name that outputs Info+ logs to stdout.
func NewLogger(name string) Logger {
	config := NewZapLoggerConfig()
	return &impl{zap.Must(config.Build()).Sugar().Named(name)}
}

// NewDebugLogger returns a new logger named name that outputs Debug+ logs to stdout.
func NewDebugLogger(name string) Logger {
	config := NewZapLoggerConfig()
	config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	return &impl{zap.Must(config.Build()).Sugar().Named(name)}
}

// FromZap wraps an existing zap logger.
func FromZap(logger *zap.SugaredLogger) Logger {
	return &impl{logger}
}
