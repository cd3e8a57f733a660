package common

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler discards every record. Enabled reports false so callers skip formatting.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger configures the logger used by every engine package.
// The engine is silent until a logger is set. Passing nil restores the silent default.
//
// Levels:
//   - slog.LevelDebug: per-stage diagnostics (console debug flag)
//   - slog.LevelInfo: lifecycle events (device created, shaders reloaded)
//   - slog.LevelWarn: configuration errors and skipped features
//   - slog.LevelError: GPU state errors
//
// Parameters:
//   - l: the logger to install, or nil to disable logging
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the currently installed logger. Never nil.
//
// Returns:
//   - *slog.Logger: the active logger
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// OnceLogger emits a warning the first time a key is seen and stays quiet afterwards
// until Reset is called. Features use it to report a resource failure once per
// configuration instead of once per frame.
type OnceLogger struct {
	mu   *sync.Mutex
	seen map[string]struct{}
}

// NewOnceLogger creates an empty OnceLogger.
//
// Returns:
//   - *OnceLogger: the newly created logger
func NewOnceLogger() *OnceLogger {
	return &OnceLogger{
		mu:   &sync.Mutex{},
		seen: make(map[string]struct{}),
	}
}

// Warn logs msg at warn level if key has not been logged since the last Reset.
//
// Parameters:
//   - key: deduplication key, typically "<feature>/<resource>"
//   - msg: the log message
//   - args: slog key/value attributes
//
// Returns:
//   - bool: true if the message was emitted
func (o *OnceLogger) Warn(key, msg string, args ...any) bool {
	o.mu.Lock()
	_, dup := o.seen[key]
	if !dup {
		o.seen[key] = struct{}{}
	}
	o.mu.Unlock()

	if dup {
		return false
	}
	Logger().Warn(msg, append(args, "key", key)...)
	return true
}

// Reset forgets every key so the next failure is reported again.
func (o *OnceLogger) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	clear(o.seen)
}
