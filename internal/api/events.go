package api

// Event types broadcast besides navigation and narration messages.
const (
	EventTour      = "tour"
	EventAmbience  = "ambience"
	EventCelebrate = "celebrate"
	EventFavorites = "favorites"
	EventSnapshot  = "snapshot"
)

// Envelope wraps a payload that carries no type of its own.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}
