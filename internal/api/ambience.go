package api

import (
	"net/http"

	"ringroad/pkg/audio"
)

// AmbienceHandler switches category ambience on and off.
type AmbienceHandler struct {
	amb *audio.Ambience
}

// NewAmbienceHandler creates a new AmbienceHandler.
func NewAmbienceHandler(amb *audio.Ambience) *AmbienceHandler {
	return &AmbienceHandler{amb: amb}
}

type ambienceRequest struct {
	Enabled bool `json:"enabled"`
}

type ambienceStatus struct {
	Enabled bool   `json:"enabled"`
	Track   string `json:"track,omitempty"`
}

// HandleStatus handles GET /api/ambience.
func (h *AmbienceHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status())
}

// HandleSet handles POST /api/ambience.
func (h *AmbienceHandler) HandleSet(w http.ResponseWriter, r *http.Request) {
	var req ambienceRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.amb.SetEnabled(req.Enabled)
	writeJSON(w, http.StatusOK, h.status())
}

func (h *AmbienceHandler) status() ambienceStatus {
	return ambienceStatus{Enabled: h.amb.Enabled(), Track: h.amb.Current()}
}
