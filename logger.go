package gosequence

import (
	"fmt"
	"io"
)

// Logger provides a simple interface for sequence logging.
type Logger interface {
	// Debug logs a message at debug level
	Debug(format string, args ...interface{})

	// Info logs a message at info level
	Info(format string, args ...interface{})

	// Warn logs a message at warning level
	Warn(format string, args ...interface{})

	// Error logs a message at error level
	Error(format string, args ...interface{})
}

// DefaultLogger is a no-op logger implementation
type DefaultLogger struct{}

// Debug implements Logger.Debug
func (l *DefaultLogger) Debug(format string, args ...interface{}) {}

// Info implements Logger.Info
func (l *DefaultLogger) Info(format string, args ...interface{}) {}

// Warn implements Logger.Warn
func (l *DefaultLogger) Warn(format string, args ...interface{}) {}

// Error implements Logger.Error
func (l *DefaultLogger) Error(format string, args ...interface{}) {}

// NewDefaultLogger creates a new default no-op logger
func NewDefaultLogger() Logger {
	return &DefaultLogger{}
}

// ConsoleLogger writes leveled, printf-formatted lines to a writer.
type ConsoleLogger struct {
	w io.Writer
}

// NewConsoleLogger creates a logger writing to w.
func NewConsoleLogger(w io.Writer) *ConsoleLogger {
	return &ConsoleLogger{w: w}
}

func (l *ConsoleLogger) log(level, format string, args ...interface{}) {
	fmt.Fprintf(l.w, "[%s] %s\n", level, fmt.Sprintf(format, args...))
}

// Debug implements Logger.Debug
func (l *ConsoleLogger) Debug(format string, args ...interface{}) {
	l.log("DEBUG", format, args...)
}

// Info implements Logger.Info
func (l *ConsoleLogger) Info(format string, args ...interface{}) {
	l.log("INFO", format, args...)
}

// Warn implements Logger.Warn
func (l *ConsoleLogger) Warn(format string, args ...interface{}) {
	l.log("WARN", format, args...)
}

// Error implements Logger.Error
func (l *ConsoleLogger) Error(format string, args ...interface{}) {
	l.log("ERROR", format, args...)
}
