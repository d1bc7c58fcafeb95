package api

import (
	"net/http"

	"ringroad/pkg/tour"
)

// TourHandler exposes the tour sequencer.
type TourHandler struct {
	seq *tour.Sequencer
}

// NewTourHandler creates a new TourHandler.
func NewTourHandler(seq *tour.Sequencer) *TourHandler {
	return &TourHandler{seq: seq}
}

// HandleStatus handles GET /api/tour.
func (h *TourHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.seq.Status())
}

// HandleStart handles POST /api/tour/start.
func (h *TourHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	if err := h.seq.Start(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.seq.Status())
}

// HandleStop handles POST /api/tour/stop.
func (h *TourHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	h.seq.Stop()
	writeJSON(w, http.StatusOK, h.seq.Status())
}
