// Package logger provides structured logging utilities.
//
// It wraps a process-wide zap logger behind printf-style helpers so callers
// do not depend on zap directly.
package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var sugar = zap.NewNop().Sugar()

// Initialize sets up the process-wide logger. Development mode logs in
// console format with caller information; otherwise output is JSON.
func Initialize(level string, development bool) error {
	var config zap.Config
	if development {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	config.Level = zap.NewAtomicLevelAt(lvl)

	l, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	sugar = l.Sugar()
	return nil
}

// Set replaces the process-wide logger. Tests use it with zaptest/observer.
func Set(l *zap.Logger) {
	sugar = l.WithOptions(zap.AddCallerSkip(1)).Sugar()
}

// Debug logs debug messages.
func Debug(message string, args ...any) {
	sugar.Debugf(message, args...)
}

// Info logs informational messages.
func Info(message string, args ...any) {
	sugar.Infof(message, args...)
}

// Warn logs warnings.
func Warn(message string, args ...any) {
	sugar.Warnf(message, args...)
}

// Error logs error messages.
func Error(message string, args ...any) {
	sugar.Errorf(message, args...)
}

// Fatal logs fatal messages and terminates the program.
func Fatal(message string, args ...any) {
	sugar.Errorf(message, args...)
	Sync()
	os.Exit(1)
}

// Sync flushes any buffered log entries.
func Sync() {
	_ = sugar.Sync()
}
