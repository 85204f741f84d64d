package logger

import (
	"io"
	"os"
)

// Constants for logging levels
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Environments the tool may run in
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Logger interface defines the logging contract
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	With(args ...any) Logger
}

// New creates a logger for the given environment: human-readable text in
// development, JSON otherwise. Logs go to stderr so command output on
// stdout stays clean.
func New(environment string, level string) Logger {
	if environment == EnvDevelopment {
		return NewTextLogger(os.Stderr, level)
	}
	return NewJSONLogger(os.Stderr, level)
}

// NewTextLogger creates a text logger writing to w with the specified level
func NewTextLogger(w io.Writer, level string) Logger {
	return newSlogLogger(w, level, false)
}

// NewJSONLogger creates a JSON logger writing to w with the specified level
func NewJSONLogger(w io.Writer, level string) Logger {
	return newSlogLogger(w, level, true)
}

// NewNoOpLogger creates a logger that discards all log messages
func NewNoOpLogger() Logger {
	return noopLogger{}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (l noopLogger) With(...any) Logger { return l }
