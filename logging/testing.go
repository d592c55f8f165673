package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// NewTestLogger returns a logger that writes Debug+ logs through the given
// testing.TB so output is associated with the running test.
func NewTestLogger(tb testing.TB) Logger {
	return &impl{zaptest.NewLogger(tb, zaptest.Level(zap.DebugLevel)).Sugar()}
}

// NewObservedTestLogger is like NewTestLogger but also saves logs to an in
// memory observer so tests can assert against them.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	observerCore, observedLogs := observer.New(zap.LevelEnablerFunc(zapcore.DebugLevel.Enabled))
	logger := zaptest.NewLogger(tb, zaptest.Level(zap.DebugLevel)).
		WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, observerCore)
		}))
	return &impl{logger.Sugar()}, observedLogs
}
