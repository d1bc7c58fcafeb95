package logging

import (
	"strings"
	"sync"
)

// StatusCapture keeps the newest INFO+ server line for the renderer status bar.
// Seq increases with every line so a polling renderer can skip repeats.
type StatusCapture struct {
	mu   sync.RWMutex
	line string
	seq  uint64
}

// GlobalLogCapture receives INFO+ server logs when console output is enabled.
var GlobalLogCapture = &StatusCapture{}

// Write implements io.Writer. Each slog record arrives as one write.
func (w *StatusCapture) Write(p []byte) (n int, err error) {
	line := strings.TrimRight(string(p), "\r\n")
	if line == "" {
		return len(p), nil
	}
	w.mu.Lock()
	w.line = line
	w.seq++
	w.mu.Unlock()
	return len(p), nil
}

// Last returns the newest line and its sequence number, 0 before any line.
func (w *StatusCapture) Last() (line string, seq uint64) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.line, w.seq
}
