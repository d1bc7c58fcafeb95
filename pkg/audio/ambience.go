package audio

import (
	"log/slog"
	"path"
	"path/filepath"
	"sync"

	"ringroad/pkg/model"
)

// Cue tells the renderer which ambience to play. An empty Track means silence.
type Cue struct {
	Category model.Category `json:"category,omitempty"`
	Track    string         `json:"track,omitempty"`
	URL      string         `json:"url,omitempty"`
}

// Ambience maps POI categories to looping background tracks.
// Failures are logged and never returned.
type Ambience struct {
	tracks  map[string]string
	dir     string
	urlBase string
	player  Player
	emit    func(Cue)
	logger  *slog.Logger

	mu      sync.Mutex
	enabled bool
	current string
}

// NewAmbience creates the selector. player may be nil for renderer-only playback;
// emit, if set, receives a Cue whenever the track changes.
func NewAmbience(tracks map[string]string, dir, urlBase string, player Player, emit func(Cue)) *Ambience {
	return &Ambience{
		tracks:  tracks,
		dir:     dir,
		urlBase: urlBase,
		player:  player,
		emit:    emit,
		enabled: true,
		logger:  slog.With("component", "ambience"),
	}
}

// TrackFor returns the track configured for a category.
func (a *Ambience) TrackFor(c model.Category) (string, bool) {
	t, ok := a.tracks[string(c)]
	return t, ok && t != ""
}

// OnCategory switches to the category's track. Repeating the current one does nothing.
func (a *Ambience) OnCategory(c model.Category) {
	track, ok := a.TrackFor(c)
	if !ok {
		a.logger.Debug("No ambience for category", "category", c)
		a.Silence()
		return
	}

	a.mu.Lock()
	if !a.enabled || track == a.current {
		a.mu.Unlock()
		return
	}
	a.current = track
	a.mu.Unlock()

	if a.player != nil {
		if err := a.player.Loop(filepath.Join(a.dir, track)); err != nil {
			a.logger.Warn("Ambience playback failed", "track", track, "error", err)
		}
	}
	if a.emit != nil {
		a.emit(Cue{Category: c, Track: track, URL: path.Join(a.urlBase, track)})
	}
}

// Silence stops the current track.
func (a *Ambience) Silence() {
	a.mu.Lock()
	if a.current == "" {
		a.mu.Unlock()
		return
	}
	a.current = ""
	a.mu.Unlock()

	if a.player != nil {
		a.player.Stop()
	}
	if a.emit != nil {
		a.emit(Cue{})
	}
}

// SetEnabled turns ambience on or off; disabling silences it.
func (a *Ambience) SetEnabled(on bool) {
	a.mu.Lock()
	a.enabled = on
	a.mu.Unlock()
	if !on {
		a.Silence()
	}
}

// Current returns the playing track, or "".
func (a *Ambience) Current() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Enabled reports whether ambience follows category changes.
func (a *Ambience) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}
