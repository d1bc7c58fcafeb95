package favorites

import (
	"sort"
	"sync"
)

// Milestones fires once per threshold the first time the favorites count
// reaches it through an addition.
type Milestones struct {
	mu         sync.Mutex
	thresholds []int
	reached    map[int]bool
	celebrate  func(count int)
}

// NewMilestones creates the observer. Register it with Store.Subscribe(m.Observe).
func NewMilestones(thresholds []int, celebrate func(count int)) *Milestones {
	t := append([]int(nil), thresholds...)
	sort.Ints(t)
	return &Milestones{
		thresholds: t,
		reached:    make(map[int]bool),
		celebrate:  celebrate,
	}
}

// Observe is a Listener.
func (m *Milestones) Observe(count int, added bool) {
	if !added {
		return
	}
	m.mu.Lock()
	hit := false
	for _, t := range m.thresholds {
		if count == t && !m.reached[t] {
			m.reached[t] = true
			hit = true
		}
	}
	m.mu.Unlock()

	if hit && m.celebrate != nil {
		m.celebrate(count)
	}
}
