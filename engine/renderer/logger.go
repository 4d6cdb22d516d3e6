package renderer

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards every record. Enabled reports false so callers skip
// formatting.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger installs the package logger used by renderers built without WithLogger.
// By default the renderer logs nothing. Passing nil restores the silent default.
//
// Levels:
//   - slog.LevelDebug: per-frame statistics (submissions, draw counts, G-buffer generation)
//   - slog.LevelInfo: lifecycle events (construction, resize, release)
//   - slog.LevelWarn: non-fatal conditions reported by callers such as the engine loop
//
// Parameters:
//   - l: the logger to install, or nil
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the package logger. Safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
