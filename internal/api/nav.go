package api

import (
	"net/http"

	"ringroad/pkg/navigation"
	"ringroad/pkg/sheet"
)

// NavHandler exposes the navigation controller and its sheet.
type NavHandler struct {
	nav *navigation.Controller
}

// NewNavHandler creates a new NavHandler.
func NewNavHandler(nav *navigation.Controller) *NavHandler {
	return &NavHandler{nav: nav}
}

// HandleState handles GET /api/nav.
func (h *NavHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.nav.State())
}

type gotoRequest struct {
	ID string `json:"id"`
}

// HandleGoTo handles POST /api/nav/goto. A failed selection returns to the overview.
func (h *NavHandler) HandleGoTo(w http.ResponseWriter, r *http.Request) {
	var req gotoRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.nav.Guard(func() error { return h.nav.GoTo(req.ID) }); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.nav.State())
}

// HandleHome handles POST /api/nav/home.
func (h *NavHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	h.nav.GoHome()
	writeJSON(w, http.StatusOK, h.nav.State())
}

// HandleNext handles POST /api/nav/next.
func (h *NavHandler) HandleNext(w http.ResponseWriter, r *http.Request) {
	h.step(w, h.nav.Next)
}

// HandlePrevious handles POST /api/nav/previous.
func (h *NavHandler) HandlePrevious(w http.ResponseWriter, r *http.Request) {
	h.step(w, h.nav.Previous)
}

func (h *NavHandler) step(w http.ResponseWriter, op func() error) {
	if err := op(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.nav.State())
}

type locateRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lng"`
}

type locateResponse struct {
	State    navigation.Snapshot `json:"state"`
	Distance float64             `json:"distance_m"`
}

// HandleLocate handles POST /api/nav/locate with a device position.
func (h *NavHandler) HandleLocate(w http.ResponseWriter, r *http.Request) {
	var req locateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Lat < -90 || req.Lat > 90 || req.Lon < -180 || req.Lon > 180 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lat and lng must be valid coordinates"})
		return
	}
	_, dist, err := h.nav.Locate(req.Lat, req.Lon)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, locateResponse{State: h.nav.State(), Distance: dist})
}

type viewportRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// HandleViewport handles POST /api/viewport.
func (h *NavHandler) HandleViewport(w http.ResponseWriter, r *http.Request) {
	var req viewportRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Width < 0 || req.Height < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "width and height must not be negative"})
		return
	}
	h.nav.SetViewport(req.Width, req.Height)
	writeJSON(w, http.StatusOK, h.nav.State())
}

// HandleSheet handles GET /api/sheet.
func (h *NavHandler) HandleSheet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.nav.Sheet().Snapshot())
}

// HandleSheetToggle handles POST /api/sheet/toggle.
func (h *NavHandler) HandleSheetToggle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.nav.ToggleSheet())
}

// HandleSheetClose handles POST /api/sheet/close.
func (h *NavHandler) HandleSheetClose(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.nav.CloseSheet())
}

type sheetSetRequest struct {
	State sheet.State `json:"state"`
}

// HandleSheetSet handles POST /api/sheet/set.
func (h *NavHandler) HandleSheetSet(w http.ResponseWriter, r *http.Request) {
	var req sheetSetRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	snap, err := h.nav.SetSheet(req.State)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type dragRequest struct {
	Phase string  `json:"phase"` // begin, move, end, cancel
	Y     float64 `json:"y"`
}

// HandleSheetDrag handles POST /api/sheet/drag. The renderer forwards pointer
// positions in viewport pixels.
func (h *NavHandler) HandleSheetDrag(w http.ResponseWriter, r *http.Request) {
	var req dragRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	var snap sheet.Snapshot
	switch req.Phase {
	case "begin":
		snap = h.nav.BeginDrag(req.Y)
	case "move":
		snap = h.nav.Drag(req.Y)
	case "end":
		snap = h.nav.EndDrag(req.Y)
	case "cancel":
		snap = h.nav.CancelDrag()
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "phase must be begin, move, end or cancel"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
