// Package watcher polls a local file and reports when it changes.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher monitors one file by modification time and size.
type Watcher struct {
	path string

	mu      sync.Mutex
	primed  bool
	exists  bool
	modTime time.Time
	size    int64
}

// New creates a watcher for path. The current state of the file is the baseline.
func New(path string) *Watcher {
	w := &Watcher{path: path}
	w.CheckChanged()
	return w
}

// CheckChanged reports whether the file differs from the last check.
// Removal is not a change; reappearance is.
func (w *Watcher) CheckChanged() bool {
	info, err := os.Stat(w.path)

	w.mu.Lock()
	defer w.mu.Unlock()
	primed := w.primed
	w.primed = true

	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Debug("Watcher: stat failed", "path", w.path, "error", err)
		}
		w.exists = false
		return false
	}

	changed := primed && (!w.exists || !info.ModTime().Equal(w.modTime) || info.Size() != w.size)
	w.exists = true
	w.modTime = info.ModTime()
	w.size = info.Size()
	return changed
}

// Run polls every interval and calls onChange for each change until ctx ends.
func (w *Watcher) Run(ctx context.Context, interval time.Duration, onChange func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if w.CheckChanged() {
				slog.Info("Watcher: file changed", "path", w.path)
				onChange()
			}
		}
	}
}
