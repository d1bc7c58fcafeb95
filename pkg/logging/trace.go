package logging

import (
	"log/slog"
	"sync/atomic"
)

// trace gates per-event debug lines such as sheet drag moves and event fan-out.
// It is flipped at startup from log.trace and may be toggled while serving.
var trace atomic.Bool

// SetTrace enables or disables trace lines.
func SetTrace(on bool) { trace.Store(on) }

// TraceEnabled reports whether trace lines are written.
func TraceEnabled() bool { return trace.Load() }

// Trace logs at DEBUG with trace=true, and only while tracing is enabled.
func Trace(logger *slog.Logger, msg string, args ...any) {
	if !trace.Load() {
		return
	}
	logger.Debug(msg, append(args, slog.Bool("trace", true))...)
}
