// Package sheet implements the bottom sheet visibility levels used on
// narrow viewports, driven by programmatic calls and drag gestures.
package sheet

import (
	"errors"
	"fmt"
	"sync"
)

// State is a sheet visibility level.
type State string

const (
	Hidden State = "hidden"
	Peek   State = "peek"
	Half   State = "half"
	Full   State = "full"
)

// ErrInvalidState is returned by Set for unknown or disabled levels.
var ErrInvalidState = errors.New("invalid sheet state")

// rank orders states from least to most expanded.
var rank = map[State]int{Hidden: 0, Peek: 1, Half: 2, Full: 3}

// Config tunes the machine. Pixel values refer to the renderer's CSS pixels.
type Config struct {
	EnableHalf        bool
	AllowHidden       bool
	ThresholdPx       float64
	ThresholdFraction float64
	Damping           float64
	TapJitterPx       float64
	PeekHeightPx      float64
	FullTopPx         float64
}

// Snapshot is the renderer-facing view of the machine.
type Snapshot struct {
	State          State   `json:"state"`
	Offset         float64 `json:"offset"`
	Dragging       bool    `json:"dragging"`
	Narrow         bool    `json:"narrow"`
	MapInteractive bool    `json:"map_interactive"`
}

// Machine is the sheet state machine. It is safe for concurrent use.
type Machine struct {
	mu        sync.Mutex
	cfg       Config
	state     State
	narrow    bool
	viewportH float64

	dragging bool
	startY   float64
	peak     float64
	offset   float64

	listeners []func(from, to State)
}

// New creates a machine resting at Peek on a narrow viewport of the given height.
func New(cfg Config, viewportHeight float64) *Machine {
	m := &Machine{
		cfg:       cfg,
		state:     Peek,
		narrow:    true,
		viewportH: viewportHeight,
	}
	m.offset = m.baseline(Peek)
	return m
}

// OnChange registers a listener for effective state changes.
// Listeners run after the lock is released.
func (m *Machine) OnChange(fn func(from, to State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// levels returns the enabled states from least to most expanded.
func (m *Machine) levels() []State {
	out := make([]State, 0, 4)
	if m.cfg.AllowHidden {
		out = append(out, Hidden)
	}
	out = append(out, Peek)
	if m.cfg.EnableHalf {
		out = append(out, Half)
	}
	return append(out, Full)
}

func (m *Machine) enabled(s State) bool {
	for _, l := range m.levels() {
		if l == s {
			return true
		}
	}
	return false
}

// effective is the state the renderer should show.
func (m *Machine) effective() State {
	if !m.narrow {
		return Full
	}
	return m.state
}

// transition runs fn under the lock and notifies listeners if the effective state changed.
func (m *Machine) transition(fn func()) State {
	m.mu.Lock()
	from := m.effective()
	fn()
	to := m.effective()
	var listeners []func(from, to State)
	if from != to {
		listeners = append(listeners, m.listeners...)
	}
	m.mu.Unlock()

	for _, l := range listeners {
		l(from, to)
	}
	return to
}

func (m *Machine) settle(s State) {
	m.state = s
	m.dragging = false
	m.peak = 0
	m.offset = m.baseline(s)
}

// State returns the effective state. Wide viewports always read Full.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.effective()
}

// Snapshot returns the current renderer-facing state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		State:          m.effective(),
		Offset:         m.offset,
		Dragging:       m.dragging,
		Narrow:         m.narrow,
		MapInteractive: m.mapInteractive(),
	}
}

// MapInteractive reports whether the background map should accept gestures.
func (m *Machine) MapInteractive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mapInteractive()
}

func (m *Machine) mapInteractive() bool {
	return !(m.narrow && m.state == Full)
}

// SetViewport switches between narrow (sheet) and wide (sidebar) presentation.
func (m *Machine) SetViewport(narrow bool, height float64) State {
	return m.transition(func() {
		m.narrow = narrow
		if height > 0 {
			m.viewportH = height
		}
		m.settle(m.state)
	})
}

// ShowContent moves to the level that shows content but keeps the map reachable.
// On wide viewports the level is recorded for when the viewport narrows again.
func (m *Machine) ShowContent() State {
	return m.transition(func() {
		if m.cfg.EnableHalf {
			m.settle(Half)
		} else {
			m.settle(Peek)
		}
	})
}

// Close returns the sheet to Peek.
func (m *Machine) Close() State {
	return m.transition(func() { m.settle(Peek) })
}

// Toggle cycles forward through the non-hidden levels, wrapping Full to Peek.
// Wide viewports ignore it.
func (m *Machine) Toggle() State {
	return m.transition(func() {
		if m.narrow {
			m.settle(m.cycle())
		}
	})
}

func (m *Machine) cycle() State {
	var visible []State
	for _, l := range m.levels() {
		if l != Hidden {
			visible = append(visible, l)
		}
	}
	for i, l := range visible {
		if l == m.state {
			return visible[(i+1)%len(visible)]
		}
	}
	return Peek
}

// Set moves to s directly.
func (m *Machine) Set(s State) (State, error) {
	m.mu.Lock()
	ok := m.enabled(s)
	m.mu.Unlock()
	if !ok {
		return m.State(), fmt.Errorf("%w: %q", ErrInvalidState, s)
	}
	return m.transition(func() { m.settle(s) }), nil
}

// Reset cancels any drag and rests at Peek.
func (m *Machine) Reset() State {
	return m.Close()
}
