// Package logger provides verbose logging for the searchsync CLI.
// When verbose mode is enabled via -v 3, debug messages are printed to
// stderr to help operators follow a synchronisation run. A JSON log file
// can be attached with SetLogFile; it receives every record regardless
// of verbosity.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	slogmulti "github.com/samber/slog-multi"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	file    io.WriteCloser
	attrs   []any
	base    *slog.Logger
)

func init() {
	rebuild()
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	rebuild()
}

// SetLogFile fans every record out to a JSON log file at path.
// An empty path detaches the current file.
func SetLogFile(path string) error {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		_ = file.Close()
		file = nil
	}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			rebuild()
			return fmt.Errorf("open log file: %w", err)
		}
		file = f
	}
	rebuild()
	return nil
}

// SetAttrs sets attributes attached to every file record, e.g. a run id.
func SetAttrs(args ...any) {
	mu.Lock()
	defer mu.Unlock()
	attrs = args
	rebuild()
}

// Close detaches and closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	rebuild()
	return err
}

// rebuild recreates the base logger (caller must hold lock).
func rebuild() {
	console := &consoleHandler{}
	var handler slog.Handler = console
	if file != nil {
		fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
		handler = slogmulti.Fanout(console, slog.New(fileHandler).With(attrs...).Handler())
	}
	base = slog.New(handler)
}

func log(level slog.Level, format string, args ...any) {
	mu.RLock()
	l := base
	mu.RUnlock()
	if !l.Enabled(context.Background(), level) {
		return
	}
	l.Log(context.Background(), level, fmt.Sprintf(format, args...))
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	log(slog.LevelDebug, format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	log(slog.LevelInfo, format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	log(slog.LevelWarn, format, args...)
}
