package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"ringroad/pkg/catalog"
	"ringroad/pkg/favorites"
	"ringroad/pkg/filter"
	"ringroad/pkg/model"
)

// CatalogHandler owns the loaded catalog and exposes it to the renderer.
type CatalogHandler struct {
	loader      *catalog.Loader
	favs        *favorites.Store
	pad         float64
	nearbyRings int

	mu     sync.RWMutex
	cat    *catalog.Catalog
	err    error
	onLoad []LoadFunc
}

// NewCatalogHandler creates the handler. Call Reload to load the catalog.
func NewCatalogHandler(loader *catalog.Loader, favs *favorites.Store, boundsPad float64, nearbyRings int) *CatalogHandler {
	return &CatalogHandler{
		loader:      loader,
		favs:        favs,
		pad:         boundsPad,
		nearbyRings: nearbyRings,
		err:         catalog.ErrNotLoaded,
	}
}

// LoadFunc is called with each freshly loaded catalog.
type LoadFunc func(*catalog.Catalog)

// OnLoad registers a callback for every successful load.
func (h *CatalogHandler) OnLoad(fn LoadFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onLoad = append(h.onLoad, fn)
}

// Reload loads the catalog again. On failure the previous catalog stays active.
func (h *CatalogHandler) Reload(ctx context.Context) error {
	c, err := h.loader.Load(ctx)

	h.mu.Lock()
	if err != nil {
		if h.cat == nil {
			h.err = err
		}
		h.mu.Unlock()
		return err
	}
	h.cat, h.err = c, nil
	callbacks := append([]LoadFunc(nil), h.onLoad...)
	h.mu.Unlock()

	for _, fn := range callbacks {
		fn(c)
	}
	return nil
}

// Current returns the active catalog, or the load error.
func (h *CatalogHandler) Current() (*catalog.Catalog, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.cat == nil {
		return nil, h.err
	}
	return h.cat, nil
}

// POIView is a POI with its favorite flag.
type POIView struct {
	*model.POI
	Favorite bool `json:"favorite"`
}

func (h *CatalogHandler) view(p *model.POI) POIView {
	return POIView{POI: p, Favorite: h.favs.IsFavorite(p.ID)}
}

// CatalogStatus reports whether the catalog is usable.
type CatalogStatus struct {
	Loaded       bool            `json:"loaded"`
	Error        string          `json:"error,omitempty"`
	Source       string          `json:"source"`
	Count        int             `json:"count"`
	Bounds       *catalog.Bounds `json:"bounds,omitempty"`
	RouteLengthM float64         `json:"route_length_m,omitempty"`
}

func (h *CatalogHandler) status() CatalogStatus {
	st := CatalogStatus{Source: h.loader.Source()}
	c, err := h.Current()
	if err != nil {
		st.Error = err.Error()
		return st
	}
	b := c.Bounds(h.pad)
	st.Loaded = true
	st.Count = c.Len()
	st.Bounds = &b
	st.RouteLengthM = c.RouteLength()
	return st
}

// HandleStatus handles GET /api/catalog.
func (h *CatalogHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status())
}

// HandleReload handles POST /api/catalog/reload.
func (h *CatalogHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	if err := h.Reload(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, h.status())
		return
	}
	writeJSON(w, http.StatusOK, h.status())
}

// HandleList handles GET /api/pois?q=&category=&favorites=1.
func (h *CatalogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	c, err := h.Current()
	if err != nil {
		writeError(w, errNotLoaded)
		return
	}

	q := r.URL.Query()
	favOnly, _ := strconv.ParseBool(q.Get("favorites"))
	matches := filter.Apply(c.POIs(), filter.Query{
		Term:          q.Get("q"),
		Category:      q.Get("category"),
		FavoritesOnly: favOnly,
		IsFavorite:    h.favs.IsFavorite,
	})

	out := make([]POIView, len(matches))
	for i, p := range matches {
		out[i] = h.view(p)
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /api/pois/{id}.
func (h *CatalogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.Current()
	if err != nil {
		writeError(w, errNotLoaded)
		return
	}
	p, ok := c.Get(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "poi not found"})
		return
	}
	writeJSON(w, http.StatusOK, h.view(p))
}

// HandleCategories handles GET /api/categories. The first entry is always "All".
func (h *CatalogHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	out := []string{filter.All}
	if c, err := h.Current(); err == nil {
		for _, cat := range c.Categories() {
			out = append(out, string(cat))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleRoute handles GET /api/route.
func (h *CatalogHandler) HandleRoute(w http.ResponseWriter, r *http.Request) {
	c, err := h.Current()
	if err != nil {
		writeError(w, errNotLoaded)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"points": c.Route()})
}

// HandleGeoJSON handles GET /api/geojson: markers and route as a FeatureCollection.
func (h *CatalogHandler) HandleGeoJSON(w http.ResponseWriter, r *http.Request) {
	c, err := h.Current()
	if err != nil {
		writeError(w, errNotLoaded)
		return
	}
	data, err := c.FeatureCollection().MarshalJSON()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	if _, err := w.Write(data); err != nil {
		slog.Error("Failed to write geojson response", "error", err)
	}
}

// HandleNearby handles GET /api/nearby?lat=&lon=&rings=.
func (h *CatalogHandler) HandleNearby(w http.ResponseWriter, r *http.Request) {
	c, err := h.Current()
	if err != nil {
		writeError(w, errNotLoaded)
		return
	}

	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(firstNonEmpty(q.Get("lon"), q.Get("lng")), 64)
	if errLat != nil || errLon != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lat and lon must be valid coordinates"})
		return
	}
	rings := h.nearbyRings
	if s := q.Get("rings"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || n > 10 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "rings must be between 0 and 10"})
			return
		}
		rings = n
	}

	hits, err := c.Nearby(lat, lon, rings)
	if err != nil {
		writeError(w, err)
		return
	}
	if hits == nil {
		hits = []catalog.Hit{}
	}
	writeJSON(w, http.StatusOK, hits)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
