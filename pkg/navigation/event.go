package navigation

import (
	"ringroad/pkg/catalog"
	"ringroad/pkg/model"
	"ringroad/pkg/sheet"
)

// EventType names a renderer instruction.
type EventType string

const (
	EventContent  EventType = "content"  // POI detail, or the overview when POI is nil
	EventViewport EventType = "viewport" // recentre the map
	EventMarker   EventType = "marker"   // marker emphasis changes
	EventSheet    EventType = "sheet"    // sheet level and offset
	EventCategory EventType = "category" // category of the newly selected POI
)

// Event is one instruction for subscribers, emitted after state is updated.
type Event struct {
	Type     EventType       `json:"type"`
	POI      *model.POI      `json:"poi,omitempty"`
	Viewport *Viewport       `json:"viewport,omitempty"`
	Markers  []MarkerChange  `json:"markers,omitempty"`
	Sheet    *sheet.Snapshot `json:"sheet,omitempty"`
	Category model.Category  `json:"category,omitempty"`
}

// Viewport is a map recentring request.
// Bounds is set for the overview, where the renderer fits the box instead.
type Viewport struct {
	Lat     float64         `json:"lat"`
	Lon     float64         `json:"lng"`
	Zoom    int             `json:"zoom"`
	Bounds  *catalog.Bounds `json:"bounds,omitempty"`
	Padding Padding         `json:"padding"`
}

// Padding tells the renderer which part of the map is covered by UI.
type Padding struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// MarkerChange sets the emphasis of one marker.
type MarkerChange struct {
	ID          string `json:"id"`
	Highlighted bool   `json:"highlighted"`
}

// MarkerState is the declarative emphasis record for one marker.
type MarkerState struct {
	Highlighted bool `json:"highlighted"`
}
