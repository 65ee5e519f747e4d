package logger

import (
	"context"
	"fmt"
	"log/slog"
)

// consoleHandler writes "[LEVEL] message" lines to the verbose output.
// Attributes are kept for the file sink only.
type consoleHandler struct{}

func (h *consoleHandler) Enabled(_ context.Context, _ slog.Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	mu.RLock()
	w := output
	mu.RUnlock()
	_, err := fmt.Fprintf(w, "[%s] %s\n", levelLabel(r.Level), r.Message)
	return err
}

func (h *consoleHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return h
}

func (h *consoleHandler) WithGroup(_ string) slog.Handler {
	return h
}

func levelLabel(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARN"
	case l >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
