package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ringroad/internal/api"
	"ringroad/pkg/audio"
	"ringroad/pkg/catalog"
	"ringroad/pkg/config"
	"ringroad/pkg/db"
	"ringroad/pkg/favorites"
	"ringroad/pkg/logging"
	"ringroad/pkg/narration"
	"ringroad/pkg/navigation"
	"ringroad/pkg/probe"
	"ringroad/pkg/request"
	"ringroad/pkg/sheet"
	"ringroad/pkg/store"
	"ringroad/pkg/tour"
	"ringroad/pkg/tracker"
	"ringroad/pkg/version"
	"ringroad/pkg/watcher"
)

const defaultConfigPath = "configs/ringroad.yaml"

var (
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
	configPath = flag.String("config", defaultConfigPath, "Path to the config file")
)

// cacheMaxAge bounds how long a remote catalog copy is kept as a fallback.
const cacheMaxAge = 30 * 24 * time.Hour

func main() {
	flag.Parse()

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file generated: %s\n", *configPath)
		return
	}

	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to read .env: %v\n", err)
	}

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()
	logging.SetTrace(appCfg.Log.Trace)

	slog.Info("Ringroad Started", "version", version.Version)

	dbConn, st, err := initDB(appCfg)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if n, err := dbConn.PruneCache(ctx, cacheMaxAge); err != nil {
		slog.Warn("Cache pruning failed", "error", err)
	} else if n > 0 {
		slog.Info("Pruned stale catalog snapshots", "count", n)
	}

	tr := tracker.New()
	hub := api.NewHub()
	defer hub.CloseAll()

	app, err := wire(ctx, appCfg, st, tr, hub)
	if err != nil {
		return err
	}
	defer app.seq.Stop()

	probes := []probe.Probe{
		{
			Name:     "Database",
			Check:    dbConn.PingContext,
			Critical: true,
		},
		{
			Name:     "Catalog",
			Check:    func(context.Context) error { _, err := app.catalog.Current(); return err },
			Critical: false, // The service stays up and reports the error
		},
	}
	if appCfg.Server.StaticDir != "" {
		probes = append(probes, probe.Probe{
			Name:  "Renderer Assets",
			Check: staticCheck(appCfg.Server.StaticDir),
		})
	}
	if err := probe.AnalyzeResults(probe.Run(ctx, probes)); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	return runServer(ctx, appCfg, app.handlers)
}

func initDB(appCfg *config.Config) (*db.DB, store.Store, error) {
	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return dbConn, store.NewSQLiteStore(dbConn), nil
}

type application struct {
	catalog  *api.CatalogHandler
	nav      *navigation.Controller
	seq      *tour.Sequencer
	handlers api.Handlers
}

// wire builds the view-model components and connects their events to the hub.
func wire(ctx context.Context, cfg *config.Config, st store.Store, tr *tracker.Tracker, hub *api.Hub) (*application, error) {
	// Favorites
	favs := favorites.New(st, store.StateKey(cfg.Favorites.StateKey))
	favs.LoadInitial(ctx)
	milestones := favorites.NewMilestones(cfg.Favorites.Milestones, func(count int) {
		slog.Info("Favorites milestone reached", "count", count)
		hub.Broadcast(api.Envelope{Type: api.EventCelebrate, Data: count})
	})
	favs.Subscribe(milestones.Observe)
	favs.Subscribe(func(count int, added bool) {
		hub.Broadcast(api.Envelope{Type: api.EventFavorites, Data: favs.IDs()})
	})

	// Sheet and navigation
	sh := sheet.New(sheet.Config{
		EnableHalf:        cfg.Sheet.EnableHalf,
		AllowHidden:       cfg.Sheet.AllowHidden,
		ThresholdPx:       cfg.Sheet.ThresholdPx,
		ThresholdFraction: cfg.Sheet.ThresholdFraction,
		Damping:           cfg.Sheet.Damping,
		TapJitterPx:       cfg.Sheet.TapJitterPx,
		PeekHeightPx:      cfg.Sheet.PeekHeightPx,
		FullTopPx:         cfg.Sheet.FullTopPx,
	}, 0)
	sh.OnChange(func(from, to sheet.State) {
		slog.Debug("Sheet level changed", "from", from, "to", to)
	})
	nav := navigation.New(nil, sh, navigation.Options{
		FocusZoom:     cfg.Map.FocusZoom,
		HomeZoom:      cfg.Map.HomeZoom,
		HomeLat:       cfg.Map.HomeCenter[0],
		HomeLon:       cfg.Map.HomeCenter[1],
		BoundsPad:     cfg.Map.BoundsPad,
		Breakpoint:    cfg.Map.Breakpoint,
		SidebarWidth:  cfg.Map.SidebarWidth,
		LocateMaxDist: float64(cfg.Map.LocateMaxDist),
	})
	nav.Subscribe(func(e navigation.Event) { hub.Broadcast(e) })

	// Ambience
	amb := initAmbience(cfg, hub)
	nav.Subscribe(func(e navigation.Event) {
		switch {
		case e.Type == navigation.EventCategory:
			amb.OnCategory(e.Category)
		case e.Type == navigation.EventContent && e.POI == nil:
			amb.Silence()
		}
	})

	// Narration and tour
	narrator, err := narration.New(cfg.Narration.Engine, hub)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize narration: %w", err)
	}
	if remote, ok := narrator.(*narration.Remote); ok {
		hub.OnMessage = func(clientID string, msg api.ClientMessage) {
			if msg.Type == narration.TypeNarrationDone && !remote.Complete(msg.Token) {
				slog.Debug("Ignoring stale narration completion", "client", clientID, "token", msg.Token)
			}
		}
	}
	seq := tour.New(nil, nav, narrator, tour.RealClock, tour.Options{
		Pause:           cfg.Tour.Pause.Std(),
		FallbackMin:     cfg.Tour.FallbackMin.Std(),
		FallbackPerChar: cfg.Tour.FallbackPerChar.Std(),
		RestartOnStart:  cfg.Tour.RestartOnStart,
	})
	seq.OnChange(func(s tour.Status) {
		hub.Broadcast(api.Envelope{Type: api.EventTour, Data: s})
	})

	// Catalog
	client := request.New(tr, request.Options{
		Retries:   cfg.Request.Retries,
		Timeout:   cfg.Request.Timeout.Std(),
		BaseDelay: cfg.Request.BaseDelay.Std(),
	})
	loader := catalog.NewLoader(cfg.Catalog.Source,
		catalog.WithFetcher(client),
		catalog.WithCache(st, func(source string) {
			tr.TrackCacheFallback(hostOf(source))
		}),
	)
	catH := api.NewCatalogHandler(loader, favs, cfg.Map.BoundsPad, cfg.Map.NearbyRings)
	catH.OnLoad(func(c *catalog.Catalog) {
		seq.Stop()
		seq.SetCatalog(c)
		nav.SetCatalog(c)
		slog.Info("Catalog active", "count", c.Len(), "route_km", int(c.RouteLength()/1000))
	})
	if err := catH.Reload(ctx); err != nil {
		slog.Error("Catalog failed to load", "source", cfg.Catalog.Source, "error", err)
	}
	if iv := cfg.Catalog.WatchInterval.Std(); iv > 0 && !catalog.IsRemote(cfg.Catalog.Source) {
		w := watcher.New(cfg.Catalog.Source)
		go w.Run(ctx, iv, func() {
			if err := catH.Reload(ctx); err != nil {
				slog.Warn("Catalog reload failed, keeping previous catalog", "error", err)
			}
		})
	}

	hub.OnConnect = func() []any {
		return []any{api.Envelope{Type: api.EventSnapshot, Data: map[string]any{
			"nav":       nav.State(),
			"markers":   nav.MarkerStates(),
			"tour":      seq.Status(),
			"favorites": favs.IDs(),
			"ambience":  amb.Current(),
		}}}
	}

	handlers := api.Handlers{
		Catalog:   catH,
		Nav:       api.NewNavHandler(nav),
		Favorites: api.NewFavoritesHandler(favs, catH),
		Tour:      api.NewTourHandler(seq),
		Stats: api.NewStatsHandler(tr, map[string]api.Counter{
			"clients":   hub.ClientCount,
			"favorites": favs.Count,
			"pois": func() int {
				if c, err := catH.Current(); err == nil {
					return c.Len()
				}
				return 0
			},
		}),
		Hub:      hub,
		Ambience: api.NewAmbienceHandler(amb),
	}

	return &application{catalog: catH, nav: nav, seq: seq, handlers: handlers}, nil
}

func initAmbience(cfg *config.Config, hub *api.Hub) *audio.Ambience {
	var player audio.Player
	if cfg.Ambience.LocalPlayback {
		player = audio.NewBeepPlayer(cfg.Ambience.Volume)
	}
	amb := audio.NewAmbience(cfg.Ambience.Tracks, cfg.Ambience.Dir, "/audio", player, func(c audio.Cue) {
		hub.Broadcast(api.Envelope{Type: api.EventAmbience, Data: c})
	})
	amb.SetEnabled(cfg.Ambience.Enabled)
	return amb
}

// hostOf returns the host of a URL, or the source itself for local paths.
func hostOf(source string) string {
	if u, err := url.Parse(source); err == nil && u.Host != "" {
		return u.Host
	}
	return source
}

func staticCheck(dir string) probe.CheckFunc {
	return func(context.Context) error {
		if _, err := os.Stat(filepath.Join(dir, "index.html")); err != nil {
			return fmt.Errorf("renderer assets not found: %w", err)
		}
		return nil
	}
}

func runServer(ctx context.Context, cfg *config.Config, h api.Handlers) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	srv := api.NewServer(cfg.Server.Address, h, cfg.Server.StaticDir, shutdownFunc)
	return runServerLifecycle(ctx, srv, quit)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
