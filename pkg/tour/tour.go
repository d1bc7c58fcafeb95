// Package tour drives the navigation controller through the catalog,
// advancing when narration finishes or a fallback timer expires.
package tour

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"ringroad/pkg/model"
)

// State is the sequencer state.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// ErrEmptyCatalog is returned by Start when there is nothing to tour.
var ErrEmptyCatalog = errors.New("catalog is empty")

// Catalog gives ordered access to POIs.
type Catalog interface {
	Len() int
	At(i int) *model.POI
}

// Navigator selects POIs.
type Navigator interface {
	GoTo(id string) error
}

// Narrator reads text aloud and calls done when finished.
// An error means no completion will arrive.
type Narrator interface {
	Speak(ctx context.Context, text string, done func()) error
	Cancel()
}

// Options tunes pacing.
type Options struct {
	Pause           time.Duration // after narration completes
	FallbackMin     time.Duration
	FallbackPerChar time.Duration
	RestartOnStart  bool // Start while running restarts at the first POI instead of doing nothing
}

// Status is the sequencer state at one instant.
type Status struct {
	State     State  `json:"state"`
	Cursor    int    `json:"cursor"`
	Total     int    `json:"total"`
	CurrentID string `json:"current_id,omitempty"`
	Pausing   bool   `json:"pausing"`
}

// step is one POI visit. Signals carrying an older token are ignored.
type step struct {
	token uint64
	index int
	ctx   context.Context
}

// Sequencer is the tour state machine.
type Sequencer struct {
	nav      Navigator
	narrator Narrator
	clock    Clock
	opts     Options
	logger   *slog.Logger

	mu        sync.Mutex
	cat       Catalog
	state     State
	cursor    int
	token     uint64
	fallback  Timer
	pause     Timer
	runCtx    context.Context
	runCancel context.CancelFunc
	listeners []Listener
}

// New creates an idle sequencer. A nil clock uses the wall clock.
func New(cat Catalog, nav Navigator, narrator Narrator, clock Clock, opts Options) *Sequencer {
	if clock == nil {
		clock = RealClock
	}
	return &Sequencer{
		cat:      cat,
		nav:      nav,
		narrator: narrator,
		clock:    clock,
		opts:     opts,
		state:    StateIdle,
		logger:   slog.With("component", "tour"),
	}
}

// SetCatalog replaces the catalog, stopping a running tour.
func (s *Sequencer) SetCatalog(cat Catalog) {
	s.Stop()
	s.mu.Lock()
	s.cat = cat
	s.mu.Unlock()
}

// Listener receives the status after every state or cursor change.
type Listener func(Status)

// OnChange registers a listener for state and cursor changes.
func (s *Sequencer) OnChange(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Sequencer) notify() {
	s.mu.Lock()
	st := s.statusLocked()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l(st)
	}
}

// Status returns the current state.
func (s *Sequencer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Sequencer) statusLocked() Status {
	st := Status{State: s.state, Cursor: s.cursor, Pausing: s.pause != nil}
	if s.cat != nil {
		st.Total = s.cat.Len()
		if s.state == StateRunning {
			if p := s.cat.At(s.cursor); p != nil {
				st.CurrentID = p.ID
			}
		}
	}
	return st
}

// Start begins the tour at the first POI.
// While running it restarts or does nothing, depending on RestartOnStart.
func (s *Sequencer) Start() error {
	s.mu.Lock()
	if s.cat == nil || s.cat.Len() == 0 {
		s.mu.Unlock()
		return ErrEmptyCatalog
	}
	wasRunning := s.state == StateRunning
	if wasRunning && !s.opts.RestartOnStart {
		s.mu.Unlock()
		s.logger.Debug("Tour already running, start ignored")
		return nil
	}
	s.haltLocked()

	s.runCtx, s.runCancel = context.WithCancel(context.Background())
	s.state = StateRunning
	s.cursor = 0
	s.token++
	next := &step{token: s.token, index: 0, ctx: s.runCtx}
	s.mu.Unlock()

	if wasRunning {
		s.narrator.Cancel()
		s.logger.Info("Tour restarted")
	} else {
		s.logger.Info("Tour started")
	}
	s.notify()
	s.play(next)
	return nil
}

// Stop ends the tour, cancelling narration and pending timers.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	s.haltLocked()
	s.state = StateIdle
	s.token++
	s.mu.Unlock()

	s.narrator.Cancel()
	s.logger.Info("Tour stopped")
	s.notify()
}

func (s *Sequencer) stopTimersLocked() {
	if s.fallback != nil {
		s.fallback.Stop()
		s.fallback = nil
	}
	if s.pause != nil {
		s.pause.Stop()
		s.pause = nil
	}
}

// haltLocked cancels timers and the run context.
func (s *Sequencer) haltLocked() {
	s.stopTimersLocked()
	if s.runCancel != nil {
		s.runCancel()
		s.runCancel = nil
	}
}

// fallbackFor returns max(FallbackMin, FallbackPerChar × characters).
func (s *Sequencer) fallbackFor(text string) time.Duration {
	d := s.opts.FallbackPerChar * time.Duration(utf8.RuneCountInString(text))
	if d < s.opts.FallbackMin {
		d = s.opts.FallbackMin
	}
	return d
}

// play visits one POI. It runs without the lock held.
func (s *Sequencer) play(st *step) {
	s.mu.Lock()
	if st.token != s.token {
		s.mu.Unlock()
		return
	}
	p := s.cat.At(st.index)
	s.mu.Unlock()

	if p == nil {
		s.Stop()
		return
	}
	if err := s.nav.GoTo(p.ID); err != nil {
		s.logger.Error("Tour navigation failed", "id", p.ID, "error", err)
		s.Stop()
		return
	}

	text := p.NarrationText()
	wait := s.fallbackFor(text)

	s.mu.Lock()
	if st.token != s.token {
		s.mu.Unlock()
		return
	}
	s.fallback = s.clock.AfterFunc(wait, func() { s.onFallback(st.token) })
	s.mu.Unlock()

	s.logger.Debug("Tour step", "index", st.index, "id", p.ID, "fallback", wait)
	if err := s.narrator.Speak(st.ctx, text, func() { s.onNarrationDone(st.token) }); err != nil {
		s.logger.Debug("Narration unavailable, fallback timer drives the tour", "error", err)
	}
}

// onNarrationDone cancels the fallback and advances after the pause.
func (s *Sequencer) onNarrationDone(token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.token || s.state != StateRunning || s.pause != nil {
		return
	}
	if s.fallback != nil {
		s.fallback.Stop()
		s.fallback = nil
	}
	s.pause = s.clock.AfterFunc(s.opts.Pause, func() { s.onPauseDone(token) })
}

func (s *Sequencer) onPauseDone(token uint64) {
	s.mu.Lock()
	if token != s.token || s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	s.pause = nil
	next := s.advanceLocked()
	s.mu.Unlock()

	s.continueWith(next)
}

// onFallback cancels narration and advances immediately.
func (s *Sequencer) onFallback(token uint64) {
	s.mu.Lock()
	// A pending pause means narration already finished for this step.
	if token != s.token || s.state != StateRunning || s.pause != nil {
		s.mu.Unlock()
		return
	}
	s.fallback = nil
	next := s.advanceLocked()
	s.mu.Unlock()

	s.logger.Debug("Narration fallback elapsed")
	s.narrator.Cancel()
	s.continueWith(next)
}

// advanceLocked moves the cursor. It returns nil when the tour has ended.
func (s *Sequencer) advanceLocked() *step {
	s.token++
	s.cursor++
	s.stopTimersLocked()
	if s.cursor >= s.cat.Len() {
		s.haltLocked()
		s.state = StateIdle
		return nil
	}
	return &step{token: s.token, index: s.cursor, ctx: s.runCtx}
}

func (s *Sequencer) continueWith(next *step) {
	if next == nil {
		s.logger.Info("Tour finished")
	}
	s.notify()
	if next != nil {
		s.play(next)
	}
}
