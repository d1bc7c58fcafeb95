package api

import (
	"net/http"
	"runtime"
	"sync"
	"time"

	"ringroad/pkg/tracker"
)

// Counter reports a single count, e.g. catalog size or connected renderers.
type Counter func() int

// StatsHandler reports fetch counters and process diagnostics.
type StatsHandler struct {
	tracker  *tracker.Tracker
	counters map[string]Counter
	started  time.Time

	mu     sync.Mutex
	maxMem uint64
}

// NewStatsHandler creates a new StatsHandler. Counters are evaluated per request.
func NewStatsHandler(t *tracker.Tracker, counters map[string]Counter) *StatsHandler {
	return &StatsHandler{
		tracker:  t,
		counters: counters,
		started:  time.Now(),
	}
}

// SourceStatsDTO is the per-host fetch summary.
type SourceStatsDTO struct {
	Success        int64 `json:"success"`
	Failures       int64 `json:"failures"`
	Retries        int64 `json:"retries"`
	CacheFallbacks int64 `json:"cache_fallbacks"`
	SuccessRate    int64 `json:"success_rate"`
}

// Diagnostics describes the server process.
type Diagnostics struct {
	UptimeSec   int64  `json:"uptime_sec"`
	MemoryMB    uint64 `json:"memory_mb"`
	MemoryMaxMB uint64 `json:"memory_max_mb"`
	Goroutines  int    `json:"goroutines"`
}

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	Diagnostics Diagnostics               `json:"diagnostics"`
	Counts      map[string]int            `json:"counts"`
	Sources     map[string]SourceStatsDTO `json:"sources"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{
		Diagnostics: h.gatherDiagnostics(),
		Counts:      make(map[string]int, len(h.counters)),
		Sources:     make(map[string]SourceStatsDTO),
	}
	for name, fn := range h.counters {
		resp.Counts[name] = fn()
	}

	for host, s := range h.tracker.Snapshot() {
		total := s.Success + s.Failures
		rate := int64(0)
		if total > 0 {
			rate = (s.Success * 100) / total
		}
		resp.Sources[host] = SourceStatsDTO{
			Success:        s.Success,
			Failures:       s.Failures,
			Retries:        s.Retries,
			CacheFallbacks: s.CacheFallbacks,
			SuccessRate:    rate,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *StatsHandler) gatherDiagnostics() Diagnostics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	h.mu.Lock()
	if ms.Sys > h.maxMem {
		h.maxMem = ms.Sys
	}
	peak := h.maxMem
	h.mu.Unlock()

	return Diagnostics{
		UptimeSec:   int64(time.Since(h.started).Seconds()),
		MemoryMB:    bToMb(ms.Sys),
		MemoryMaxMB: bToMb(peak),
		Goroutines:  runtime.NumGoroutine(),
	}
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
