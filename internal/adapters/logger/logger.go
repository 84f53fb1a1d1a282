// Package logger implements ports.Logger on log/slog.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"go.trai.ch/keel/internal/core/ports"
)

// Logger writes human readable lines by default and JSON records when asked to.
// Output and format may be switched while other goroutines log.
type Logger struct {
	mu     sync.RWMutex
	logger *slog.Logger
	out    io.Writer
	json   bool
	level  slog.Level
}

// New creates a Logger writing pretty lines to stderr at info level.
func New() ports.Logger {
	l := &Logger{out: os.Stderr, level: slog.LevelInfo}
	l.rebuild()
	return l
}

// SetOutput redirects the logger. A nil writer means stderr.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	l.out = w
	l.rebuild()
}

// SetJSON switches between JSON records and pretty lines.
func (l *Logger) SetJSON(enable bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.json = enable
	l.rebuild()
}

// SetQuiet drops info messages; warnings and errors are still written.
func (l *Logger) SetQuiet(quiet bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = slog.LevelInfo
	if quiet {
		l.level = slog.LevelWarn
	}
	l.rebuild()
}

// rebuild must be called with mu held.
func (l *Logger) rebuild() {
	opts := &slog.HandlerOptions{Level: l.level}
	if l.json {
		l.logger = slog.New(slog.NewJSONHandler(l.out, opts))
		return
	}
	l.logger = slog.New(NewPrettyHandler(l.out, opts))
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info(msg)
}

// Warn logs a degraded but non fatal condition.
func (l *Logger) Warn(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn(msg)
}

// Error logs err with its cause chain. In JSON mode the chain is flattened
// into a single record carrying the metadata of every layer.
func (l *Logger) Error(err error) {
	if err == nil {
		return
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := collectErrorEntries(err)
	if l.json {
		attrs := []any{"error", err.Error()}
		for _, e := range entries {
			for k, v := range e.Metadata {
				attrs = append(attrs, k, v)
			}
		}
		l.logger.Error("operation failed", attrs...)
		return
	}
	l.logger.Error(formatErrorEntries(entries))
}
