package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"ringroad/pkg/version"
)

// Handlers groups the endpoint handlers. Nil optional handlers disable their routes.
type Handlers struct {
	Catalog   *CatalogHandler
	Nav       *NavHandler
	Favorites *FavoritesHandler
	Tour      *TourHandler
	Stats     *StatsHandler
	Hub       *Hub
	Ambience  *AmbienceHandler // optional
}

// NewServer creates and configures the HTTP server.
// staticDir holds the renderer assets; empty disables static serving.
func NewServer(addr string, h Handlers, staticDir string, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	// 1. Health and version
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)

	// 2. Catalog
	mux.HandleFunc("GET /api/catalog", h.Catalog.HandleStatus)
	mux.HandleFunc("POST /api/catalog/reload", h.Catalog.HandleReload)
	mux.HandleFunc("GET /api/pois", h.Catalog.HandleList)
	mux.HandleFunc("GET /api/pois/{id}", h.Catalog.HandleGet)
	mux.HandleFunc("GET /api/categories", h.Catalog.HandleCategories)
	mux.HandleFunc("GET /api/route", h.Catalog.HandleRoute)
	mux.HandleFunc("GET /api/geojson", h.Catalog.HandleGeoJSON)
	mux.HandleFunc("GET /api/nearby", h.Catalog.HandleNearby)

	// 3. Navigation and viewport
	mux.HandleFunc("GET /api/nav", h.Nav.HandleState)
	mux.HandleFunc("POST /api/nav/goto", h.Nav.HandleGoTo)
	mux.HandleFunc("POST /api/nav/home", h.Nav.HandleHome)
	mux.HandleFunc("POST /api/nav/next", h.Nav.HandleNext)
	mux.HandleFunc("POST /api/nav/previous", h.Nav.HandlePrevious)
	mux.HandleFunc("POST /api/nav/locate", h.Nav.HandleLocate)
	mux.HandleFunc("POST /api/viewport", h.Nav.HandleViewport)

	// 4. Sheet
	mux.HandleFunc("GET /api/sheet", h.Nav.HandleSheet)
	mux.HandleFunc("POST /api/sheet/toggle", h.Nav.HandleSheetToggle)
	mux.HandleFunc("POST /api/sheet/close", h.Nav.HandleSheetClose)
	mux.HandleFunc("POST /api/sheet/set", h.Nav.HandleSheetSet)
	mux.HandleFunc("POST /api/sheet/drag", h.Nav.HandleSheetDrag)

	// 5. Favorites
	mux.HandleFunc("GET /api/favorites", h.Favorites.HandleList)
	mux.HandleFunc("POST /api/favorites/{id}/toggle", h.Favorites.HandleToggle)

	// 6. Tour
	mux.HandleFunc("GET /api/tour", h.Tour.HandleStatus)
	mux.HandleFunc("POST /api/tour/start", h.Tour.HandleStart)
	mux.HandleFunc("POST /api/tour/stop", h.Tour.HandleStop)

	// 7. Ambience
	if h.Ambience != nil {
		mux.HandleFunc("GET /api/ambience", h.Ambience.HandleStatus)
		mux.HandleFunc("POST /api/ambience", h.Ambience.HandleSet)
	}

	// 8. Stats, logs and events
	mux.Handle("GET /api/stats", h.Stats)
	mux.HandleFunc("GET /api/log/latest", handleLatestLog)
	mux.Handle("GET /api/events", h.Hub)

	// 9. Shutdown
	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		// Let the response flush first
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	// 10. Renderer assets
	if staticDir != "" {
		mux.Handle("/", http.FileServer(&spaFileSystem{root: http.FS(os.DirFS(staticDir))}))
	}

	return &http.Server{
		Addr:         addr,
		Handler:      loggingMiddleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": %q}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}
