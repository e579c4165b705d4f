// Package logger defines the structured logging interface used across the
// onboarding gateway. Implementations live in internal/infrastructure/monitoring.
package logger

import "context"

// Fields is a set of key-value pairs attached to a log entry.
type Fields map[string]interface{}

// Logger is the context-aware structured logging interface.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Fields)
	Info(ctx context.Context, msg string, fields ...Fields)
	Warn(ctx context.Context, msg string, fields ...Fields)
	Error(ctx context.Context, msg string, err error, fields ...Fields)
	Fatal(ctx context.Context, msg string, err error, fields ...Fields)

	// WithFields returns a derived logger that carries the given fields on
	// every entry.
	WithFields(fields Fields) Logger

	// WithComponent returns a derived logger tagged with a component name.
	WithComponent(component string) Logger
}
