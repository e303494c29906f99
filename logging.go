package jupyterkit

import (
	"log/slog"
	"os"
)

// Logger is the minimal logging interface the package depends on. It allows
// hosts to plug in their own structured logger; the default is a no-op so the
// library stays silent unless asked otherwise.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// NewSlogLogger returns a Logger writing structured text to stderr at the
// given level. Pass the result to WithLogger / InitOptions.Logger.
func NewSlogLogger(level slog.Level) Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &SlogAdapter{slog.New(handler)}
}

// NoOpLogger discards all log output. It is the default logger.
type NoOpLogger struct{}

// Debug discards the message.
func (NoOpLogger) Debug(msg string, args ...any) {}

// Info discards the message.
func (NoOpLogger) Info(msg string, args ...any) {}

// Warn discards the message.
func (NoOpLogger) Warn(msg string, args ...any) {}

// Error discards the message.
func (NoOpLogger) Error(msg string, args ...any) {}
