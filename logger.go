package sprite

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/sprite/backend"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so SetLogger
// may race with logging from other goroutines.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for sprite. By default nothing is
// logged. Pass nil to restore the silent default.
//
// Compositors created afterwards hand the logger to their backend.
//
// Log levels used by sprite:
//   - [slog.LevelDebug]: per-frame diagnostics (skipped frames, evictions)
//   - [slog.LevelInfo]: lifecycle events (backend selected, device reset)
//   - [slog.LevelWarn]: recoverable problems (device lost, stale handles)
//
// Example:
//
//	sprite.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// propagateLogger passes l to b if the backend accepts a logger.
func propagateLogger(b backend.Backend, l *slog.Logger) {
	if ls, ok := b.(backend.LoggerSetter); ok {
		ls.SetLogger(l)
	}
}
