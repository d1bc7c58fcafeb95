package sheet

import "math"

// baseline is the resting distance of the sheet's top edge from the viewport top.
func (m *Machine) baseline(s State) float64 {
	if !m.narrow {
		return 0
	}
	switch s {
	case Full:
		return m.cfg.FullTopPx
	case Half:
		return m.viewportH / 2
	case Hidden:
		return m.viewportH
	default:
		return math.Max(m.cfg.FullTopPx, m.viewportH-m.cfg.PeekHeightPx)
	}
}

// threshold is the release distance needed to change level.
func (m *Machine) threshold() float64 {
	return math.Max(m.cfg.ThresholdPx, m.cfg.ThresholdFraction*m.viewportH)
}

// Offset returns the current visual offset of the sheet top.
func (m *Machine) Offset() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offset
}

// BeginDrag starts a gesture at pointer position y. Ignored on wide viewports.
func (m *Machine) BeginDrag(y float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.narrow {
		return
	}
	m.dragging = true
	m.startY = y
	m.peak = 0
	m.offset = m.baseline(m.state)
}

// Drag updates the gesture and returns the visual offset.
// Movement above the Full position is damped.
func (m *Machine) Drag(y float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.dragging {
		return m.offset
	}

	delta := y - m.startY
	m.peak = math.Max(m.peak, math.Abs(delta))

	off := m.baseline(m.state) + delta
	if top := m.cfg.FullTopPx; off < top {
		off = top - (top-off)*m.cfg.Damping
	}
	m.offset = off
	return off
}

// EndDrag finishes the gesture at y and returns the resting state.
// Without a preceding BeginDrag it returns the current state unchanged.
func (m *Machine) EndDrag(y float64) State {
	return m.transition(func() {
		if !m.dragging {
			return
		}
		delta := y - m.startY
		peak := math.Max(m.peak, math.Abs(delta))

		switch {
		case peak <= m.cfg.TapJitterPx:
			m.settle(m.cycle())
		case -delta > m.threshold():
			m.settle(m.step(+1))
		case delta > m.threshold():
			m.settle(m.step(-1))
		default:
			m.settle(m.state)
		}
	})
}

// CancelDrag abandons a gesture and snaps back.
func (m *Machine) CancelDrag() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dragging {
		m.settle(m.state)
	}
}

// step moves one enabled level up (+1) or down (-1), clamped at the ends.
func (m *Machine) step(dir int) State {
	levels := m.levels()
	i := 0
	for j, l := range levels {
		if rank[l] <= rank[m.state] {
			i = j
		}
	}
	i += dir
	if i < 0 {
		i = 0
	}
	if i >= len(levels) {
		i = len(levels) - 1
	}
	return levels[i]
}
