package api

import (
	"net/http"

	"ringroad/pkg/favorites"
)

// FavoritesHandler exposes the favorites store.
type FavoritesHandler struct {
	favs    *favorites.Store
	catalog *CatalogHandler
}

// NewFavoritesHandler creates a new FavoritesHandler.
func NewFavoritesHandler(favs *favorites.Store, catalog *CatalogHandler) *FavoritesHandler {
	return &FavoritesHandler{favs: favs, catalog: catalog}
}

type favoritesResponse struct {
	IDs   []string  `json:"ids"`
	Count int       `json:"count"`
	POIs  []POIView `json:"pois"`
}

// HandleList handles GET /api/favorites. POIs are listed in catalog order;
// ids that no longer resolve are kept in ids but omitted from pois.
func (h *FavoritesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	resp := favoritesResponse{
		IDs:   h.favs.IDs(),
		Count: h.favs.Count(),
		POIs:  []POIView{},
	}
	if c, err := h.catalog.Current(); err == nil {
		for _, p := range h.favs.Resolve(c) {
			resp.POIs = append(resp.POIs, POIView{POI: p, Favorite: true})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleToggle handles POST /api/favorites/{id}/toggle.
func (h *FavoritesHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	// Existing members can always be removed, even after they left the catalog.
	if !h.favs.IsFavorite(id) {
		c, err := h.catalog.Current()
		if err != nil {
			writeError(w, errNotLoaded)
			return
		}
		if _, ok := c.Get(id); !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "poi not found"})
			return
		}
	}

	on := h.favs.Toggle(r.Context(), id)
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       id,
		"favorite": on,
		"count":    h.favs.Count(),
	})
}
