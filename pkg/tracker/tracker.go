package tracker

import (
	"sync"
	"sync/atomic"
)

// Tracker counts fetch outcomes per source host.
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*SourceStats
}

// SourceStats holds counters for a single source.
// Fields are accessed atomically.
type SourceStats struct {
	Success        int64 `json:"success"`
	Failures       int64 `json:"failures"`
	Retries        int64 `json:"retries"`
	CacheFallbacks int64 `json:"cache_fallbacks"`
}

// New creates a new Tracker.
func New() *Tracker {
	return &Tracker{
		stats: make(map[string]*SourceStats),
	}
}

func (t *Tracker) get(source string) *SourceStats {
	t.mu.RLock()
	s, ok := t.stats[source]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok = t.stats[source]; ok {
		return s
	}
	s = &SourceStats{}
	t.stats[source] = s
	return s
}

func (t *Tracker) TrackSuccess(source string) {
	atomic.AddInt64(&t.get(source).Success, 1)
}

func (t *Tracker) TrackFailure(source string) {
	atomic.AddInt64(&t.get(source).Failures, 1)
}

func (t *Tracker) TrackRetry(source string) {
	atomic.AddInt64(&t.get(source).Retries, 1)
}

// TrackCacheFallback records that a stale cached copy replaced a failed fetch.
func (t *Tracker) TrackCacheFallback(source string) {
	atomic.AddInt64(&t.get(source).CacheFallbacks, 1)
}

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() map[string]SourceStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]SourceStats, len(t.stats))
	for k, v := range t.stats {
		result[k] = SourceStats{
			Success:        atomic.LoadInt64(&v.Success),
			Failures:       atomic.LoadInt64(&v.Failures),
			Retries:        atomic.LoadInt64(&v.Retries),
			CacheFallbacks: atomic.LoadInt64(&v.CacheFallbacks),
		}
	}
	return result
}
