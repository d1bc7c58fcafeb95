// Package navigation holds the view-model that keeps the current POI,
// the highlighted marker, the map viewport and the sheet level consistent.
package navigation

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"ringroad/pkg/catalog"
	"ringroad/pkg/logging"
	"ringroad/pkg/model"
	"ringroad/pkg/sheet"
)

// Catalog is the part of the POI catalog navigation depends on.
type Catalog interface {
	POIs() []*model.POI
	Get(id string) (*model.POI, bool)
	Next(id string) (*model.POI, bool)
	Previous(id string) (*model.POI, bool)
	Bounds(pad float64) catalog.Bounds
	Nearest(lat, lon float64) (*model.POI, float64, bool)
}

// Options holds viewport parameters.
type Options struct {
	FocusZoom     int
	HomeZoom      int
	HomeLat       float64
	HomeLon       float64
	BoundsPad     float64
	Breakpoint    int
	SidebarWidth  int
	LocateMaxDist float64 // meters; zero disables the limit
}

// Snapshot is the navigation state at one instant.
type Snapshot struct {
	CurrentID      string         `json:"current_id,omitempty"`
	Current        *model.POI     `json:"current,omitempty"`
	MarkerID       string         `json:"marker_id,omitempty"`
	Sheet          sheet.Snapshot `json:"sheet"`
	MapInteractive bool           `json:"map_interactive"`
	HasNext        bool           `json:"has_next"`
	HasPrevious    bool           `json:"has_previous"`
	Width          int            `json:"width"`
	Height         int            `json:"height"`
	Ready          bool           `json:"ready"` // false while no catalog is loaded
}

type subscriber struct {
	id int
	fn func(Event)
}

// Controller is the single source of truth for where the user is.
//
// Operations are serialized; each one updates the state first and then
// dispatches its events synchronously, in order. Subscribers must not call
// back into the controller from inside a callback.
type Controller struct {
	opMu sync.Mutex // held for a whole operation including dispatch

	mu       sync.RWMutex
	opts     Options
	cat      Catalog
	sheet    *sheet.Machine
	current  *model.POI
	markerID string
	width    int
	height   int

	subMu  sync.RWMutex
	subs   []subscriber
	nextID int

	logger *slog.Logger
}

// New creates a controller. cat may be nil, leaving navigation inert until SetCatalog.
func New(cat Catalog, sh *sheet.Machine, opts Options) *Controller {
	return &Controller{
		opts:   opts,
		cat:    cat,
		sheet:  sh,
		logger: slog.With("component", "navigation"),
	}
}

// Subscribe registers fn for every event. The returned func removes it.
func (c *Controller) Subscribe(fn func(Event)) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, subscriber{id: id, fn: fn})

	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

func (c *Controller) emit(events ...Event) {
	c.subMu.RLock()
	subs := append([]subscriber(nil), c.subs...)
	c.subMu.RUnlock()

	for _, e := range events {
		logging.Trace(c.logger, "Dispatching event", "type", e.Type, "subscribers", len(subs))
		for _, s := range subs {
			s.fn(e)
		}
	}
}

// SetCatalog swaps the catalog and returns to the overview.
func (c *Controller) SetCatalog(cat Catalog) {
	c.mu.Lock()
	c.cat = cat
	c.mu.Unlock()
	c.GoHome()
}

// Sheet exposes the sheet machine for read access.
func (c *Controller) Sheet() *sheet.Machine {
	return c.sheet
}

// Current returns the selected POI, or nil on the overview.
func (c *Controller) Current() *model.POI {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// GoTo selects the POI with the given id.
func (c *Controller) GoTo(id string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.RLock()
	cat := c.cat
	c.mu.RUnlock()
	if cat == nil {
		return &NotFoundError{ID: id}
	}
	p, ok := cat.Get(id)
	if !ok {
		return &NotFoundError{ID: id}
	}
	c.goTo(p)
	return nil
}

// goTo requires opMu.
func (c *Controller) goTo(p *model.POI) {
	c.mu.Lock()
	prevMarker := c.markerID
	c.current = p
	c.markerID = p.ID
	narrow := c.narrowLocked()
	c.mu.Unlock()

	if narrow {
		c.sheet.ShowContent()
	}
	snap := c.sheet.Snapshot()

	markers := make([]MarkerChange, 0, 2)
	if prevMarker != "" && prevMarker != p.ID {
		markers = append(markers, MarkerChange{ID: prevMarker, Highlighted: false})
	}
	markers = append(markers, MarkerChange{ID: p.ID, Highlighted: true})

	c.logger.Debug("GoTo", "id", p.ID, "name", p.Name, "sheet", snap.State)

	c.emit(
		Event{Type: EventContent, POI: p},
		Event{Type: EventViewport, Viewport: &Viewport{
			Lat:     p.Lat,
			Lon:     p.Lon,
			Zoom:    c.opts.FocusZoom,
			Padding: c.padding(snap),
		}},
		Event{Type: EventMarker, Markers: markers},
		Event{Type: EventSheet, Sheet: &snap},
		Event{Type: EventCategory, Category: p.Category},
	)
}

// GoHome clears the selection and shows the overview.
func (c *Controller) GoHome() {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.goHome()
}

func (c *Controller) goHome() {
	c.mu.Lock()
	prevMarker := c.markerID
	c.current = nil
	c.markerID = ""
	cat := c.cat
	c.mu.Unlock()

	c.sheet.Reset()
	snap := c.sheet.Snapshot()

	vp := &Viewport{Lat: c.opts.HomeLat, Lon: c.opts.HomeLon, Zoom: c.opts.HomeZoom, Padding: c.padding(snap)}
	if cat != nil {
		if b := cat.Bounds(c.opts.BoundsPad); !b.IsZero() {
			vp.Bounds = &b
			vp.Lat, vp.Lon = b.Center()
		}
	}

	events := []Event{
		{Type: EventContent},
		{Type: EventViewport, Viewport: vp},
	}
	if prevMarker != "" {
		events = append(events, Event{Type: EventMarker, Markers: []MarkerChange{{ID: prevMarker, Highlighted: false}}})
	}
	events = append(events, Event{Type: EventSheet, Sheet: &snap})
	c.emit(events...)
}

// Next selects the POI after the current one. At the last POI it does nothing.
func (c *Controller) Next() error {
	return c.step(func(cat Catalog, id string) (*model.POI, bool) { return cat.Next(id) })
}

// Previous selects the POI before the current one. At the first POI it does nothing.
func (c *Controller) Previous() error {
	return c.step(func(cat Catalog, id string) (*model.POI, bool) { return cat.Previous(id) })
}

func (c *Controller) step(adj func(Catalog, string) (*model.POI, bool)) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.RLock()
	cur, cat := c.current, c.cat
	c.mu.RUnlock()
	if cur == nil || cat == nil {
		return ErrNoCurrentSelection
	}
	p, ok := adj(cat, cur.ID)
	if !ok {
		return nil
	}
	c.goTo(p)
	return nil
}

// HasNext reports whether Next would move.
func (c *Controller) HasNext() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hasNextLocked()
}

// HasPrevious reports whether Previous would move.
func (c *Controller) HasPrevious() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hasPreviousLocked()
}

func (c *Controller) hasNextLocked() bool {
	if c.current == nil || c.cat == nil {
		return false
	}
	_, ok := c.cat.Next(c.current.ID)
	return ok
}

func (c *Controller) hasPreviousLocked() bool {
	if c.current == nil || c.cat == nil {
		return false
	}
	_, ok := c.cat.Previous(c.current.ID)
	return ok
}

// Locate selects the POI nearest to the coordinate and returns its distance in meters.
func (c *Controller) Locate(lat, lon float64) (*model.POI, float64, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, 0, fmt.Errorf("invalid coordinate [%v, %v]", lat, lon)
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.RLock()
	cat := c.cat
	c.mu.RUnlock()
	if cat == nil {
		return nil, 0, ErrOutOfRange
	}
	p, dist, ok := cat.Nearest(lat, lon)
	if !ok {
		return nil, 0, ErrOutOfRange
	}
	if c.opts.LocateMaxDist > 0 && dist > c.opts.LocateMaxDist {
		return nil, dist, fmt.Errorf("%w: nearest is %s at %.0f m", ErrOutOfRange, p.Name, dist)
	}
	c.goTo(p)
	return p, dist, nil
}

// Guard runs op and returns to the overview if it fails or panics,
// so the sheet always ends at a rest level.
func (c *Controller) Guard(op func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("navigation panic: %v", r)
		}
		if err != nil {
			c.logger.Warn("Navigation failed, returning home", "error", err)
			c.GoHome()
		}
	}()
	return op()
}

// SetViewport records the renderer's size. Widths below the breakpoint use the sheet.
func (c *Controller) SetViewport(width, height int) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	c.width, c.height = width, height
	narrow := c.narrowLocked()
	c.mu.Unlock()

	before := c.sheet.Snapshot()
	c.sheet.SetViewport(narrow, float64(height))
	after := c.sheet.Snapshot()
	if before != after {
		c.emit(Event{Type: EventSheet, Sheet: &after})
	}
}

// narrowLocked treats an unknown width as narrow.
func (c *Controller) narrowLocked() bool {
	return c.width < c.opts.Breakpoint
}

// padding computes the map area covered by the sheet or sidebar.
func (c *Controller) padding(snap sheet.Snapshot) Padding {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !snap.Narrow {
		return Padding{Left: c.opts.SidebarWidth}
	}
	if snap.State == sheet.Hidden || c.height <= 0 {
		return Padding{}
	}
	return Padding{Bottom: int(math.Max(0, float64(c.height)-snap.Offset))}
}

// ToggleSheet cycles the sheet level.
func (c *Controller) ToggleSheet() sheet.Snapshot {
	return c.sheetOp(func(m *sheet.Machine) { m.Toggle() })
}

// CloseSheet returns the sheet to peek without changing the selection.
func (c *Controller) CloseSheet() sheet.Snapshot {
	return c.sheetOp(func(m *sheet.Machine) { m.Close() })
}

// SetSheet moves the sheet to an explicit level.
func (c *Controller) SetSheet(s sheet.State) (sheet.Snapshot, error) {
	var err error
	snap := c.sheetOp(func(m *sheet.Machine) { _, err = m.Set(s) })
	return snap, err
}

// BeginDrag starts a sheet gesture.
func (c *Controller) BeginDrag(y float64) sheet.Snapshot {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.sheet.BeginDrag(y)
	return c.sheet.Snapshot()
}

// Drag moves the sheet during a gesture. No event is emitted.
func (c *Controller) Drag(y float64) sheet.Snapshot {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	offset := c.sheet.Drag(y)
	logging.Trace(c.logger, "Sheet drag", "y", y, "offset", offset)
	return c.sheet.Snapshot()
}

// EndDrag releases a sheet gesture.
func (c *Controller) EndDrag(y float64) sheet.Snapshot {
	return c.sheetOp(func(m *sheet.Machine) { m.EndDrag(y) })
}

// CancelDrag abandons a sheet gesture and settles on the current state.
func (c *Controller) CancelDrag() sheet.Snapshot {
	return c.sheetOp(func(m *sheet.Machine) { m.CancelDrag() })
}

func (c *Controller) sheetOp(fn func(m *sheet.Machine)) sheet.Snapshot {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	fn(c.sheet)
	snap := c.sheet.Snapshot()
	c.emit(Event{Type: EventSheet, Sheet: &snap})
	return snap
}

// State returns a snapshot of the navigation state.
func (c *Controller) State() Snapshot {
	snap := c.sheet.Snapshot()

	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Snapshot{
		Current:        c.current,
		MarkerID:       c.markerID,
		Sheet:          snap,
		MapInteractive: snap.MapInteractive,
		HasNext:        c.hasNextLocked(),
		HasPrevious:    c.hasPreviousLocked(),
		Width:          c.width,
		Height:         c.height,
		Ready:          c.cat != nil,
	}
	if c.current != nil {
		s.CurrentID = c.current.ID
	}
	return s
}

// MarkerStates returns the emphasis record for every catalog marker.
func (c *Controller) MarkerStates() map[string]MarkerState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]MarkerState)
	if c.cat == nil {
		return out
	}
	for _, p := range c.cat.POIs() {
		out[p.ID] = MarkerState{Highlighted: p.ID == c.markerID}
	}
	return out
}
