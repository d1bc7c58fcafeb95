package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	DB        DBConfig        `yaml:"db"`
	Server    ServerConfig    `yaml:"server"`
	Request   RequestConfig   `yaml:"request"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Map       MapConfig       `yaml:"map"`
	Sheet     SheetConfig     `yaml:"sheet"`
	Favorites FavoritesConfig `yaml:"favorites"`
	Tour      TourConfig      `yaml:"tour"`
	Narration NarrationConfig `yaml:"narration"`
	Ambience  AmbienceConfig  `yaml:"ambience"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
	Trace    bool        `yaml:"trace"` // Per-event debug lines (drag moves, event fan-out)
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address   string `yaml:"address"`
	StaticDir string `yaml:"static_dir"` // Renderer assets; empty disables static serving
}

// RequestConfig holds HTTP request settings for remote catalogs.
type RequestConfig struct {
	Retries   int      `yaml:"retries"`
	Timeout   Duration `yaml:"timeout"`
	BaseDelay Duration `yaml:"base_delay"`
}

// CatalogConfig holds the POI catalog source.
type CatalogConfig struct {
	Source        string   `yaml:"source"`         // Local path or http(s) URL
	WatchInterval Duration `yaml:"watch_interval"` // Reload a local catalog when it changes; 0 disables
}

// MapConfig holds viewport parameters handed to the renderer.
type MapConfig struct {
	FocusZoom     int       `yaml:"focus_zoom"`
	HomeZoom      int       `yaml:"home_zoom"`
	HomeCenter    []float64 `yaml:"home_center"`   // [lat, lng] used when the catalog has no extent
	BoundsPad     float64   `yaml:"bounds_pad"`    // Fraction added on each side of the home bounds
	Breakpoint    int       `yaml:"breakpoint_px"` // Viewports narrower than this use the bottom sheet
	SidebarWidth  int       `yaml:"sidebar_width_px"`
	NearbyRings   int       `yaml:"nearby_rings"`
	LocateMaxDist Distance  `yaml:"locate_max_distance"`
}

// SheetConfig holds bottom sheet tuning.
type SheetConfig struct {
	EnableHalf        bool    `yaml:"enable_half"`
	AllowHidden       bool    `yaml:"allow_hidden"`
	ThresholdPx       float64 `yaml:"threshold_px"`
	ThresholdFraction float64 `yaml:"threshold_fraction"`
	Damping           float64 `yaml:"damping"`
	TapJitterPx       float64 `yaml:"tap_jitter_px"`
	PeekHeightPx      float64 `yaml:"peek_height_px"`
	FullTopPx         float64 `yaml:"full_top_px"`
}

// FavoritesConfig holds favorites persistence settings.
type FavoritesConfig struct {
	StateKey   string `yaml:"state_key"`
	Milestones []int  `yaml:"milestones"`
}

// TourConfig holds tour sequencing settings.
type TourConfig struct {
	Pause           Duration `yaml:"pause"`
	FallbackMin     Duration `yaml:"fallback_min"`
	FallbackPerChar Duration `yaml:"fallback_per_char"`
	RestartOnStart  bool     `yaml:"restart_on_start"`
}

// NarrationConfig selects the narration collaborator.
type NarrationConfig struct {
	Engine string `yaml:"engine"` // "remote", "none"
}

// AmbienceConfig holds category ambience settings.
type AmbienceConfig struct {
	Enabled       bool              `yaml:"enabled"`
	LocalPlayback bool              `yaml:"local_playback"`
	Dir           string            `yaml:"dir"`
	Volume        float64           `yaml:"volume"`
	Tracks        map[string]string `yaml:"tracks"` // category -> file name
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Path: "./data/ringroad.db",
		},
		Server: ServerConfig{
			Address:   "localhost:8000",
			StaticDir: "./web",
		},
		Request: RequestConfig{
			Retries:   3,
			Timeout:   Duration(30 * time.Second),
			BaseDelay: Duration(500 * time.Millisecond),
		},
		Catalog: CatalogConfig{
			Source:        "./data/pois.json",
			WatchInterval: Duration(2 * time.Second),
		},
		Map: MapConfig{
			FocusZoom:     10,
			HomeZoom:      6,
			HomeCenter:    []float64{64.9631, -19.0208},
			BoundsPad:     0.2,
			Breakpoint:    768,
			SidebarWidth:  384,
			NearbyRings:   2,
			LocateMaxDist: Distance(100000),
		},
		Sheet: SheetConfig{
			EnableHalf:        true,
			AllowHidden:       false,
			ThresholdPx:       60,
			ThresholdFraction: 0.15,
			Damping:           0.3,
			TapJitterPx:       5,
			PeekHeightPx:      140,
			FullTopPx:         64,
		},
		Favorites: FavoritesConfig{
			StateKey:   "favorites",
			Milestones: []int{3, 7},
		},
		Tour: TourConfig{
			Pause:           Duration(2 * time.Second),
			FallbackMin:     Duration(8 * time.Second),
			FallbackPerChar: Duration(50 * time.Millisecond),
			RestartOnStart:  false,
		},
		Narration: NarrationConfig{
			Engine: "remote",
		},
		Ambience: AmbienceConfig{
			Enabled:       true,
			LocalPlayback: false,
			Dir:           "./web/audio",
			Volume:        0.4,
			Tracks: map[string]string{
				"waterfall":  "water.mp3",
				"geothermal": "steam.mp3",
				"town":       "harbour.mp3",
				"landmark":   "wind.mp3",
				"park":       "birds.mp3",
			},
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT save back to disk.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides selected values from the environment (after .env loading).
func applyEnv(cfg *Config) {
	if v := os.Getenv("RINGROAD_CATALOG"); v != "" {
		cfg.Catalog.Source = v
	}
	if v := os.Getenv("RINGROAD_ADDR"); v != "" {
		cfg.Server.Address = v
	}
}

var validEngine = regexp.MustCompile(`^(remote|none)$`)

// Validate checks values that would leave a component in an unusable state.
func (c *Config) Validate() error {
	if c.Catalog.Source == "" {
		return fmt.Errorf("catalog.source must not be empty")
	}
	if !validEngine.MatchString(c.Narration.Engine) {
		return fmt.Errorf("invalid narration.engine '%s': must be 'remote' or 'none'", c.Narration.Engine)
	}
	if c.Sheet.Damping < 0 || c.Sheet.Damping > 1 {
		return fmt.Errorf("sheet.damping must be within [0, 1], got %v", c.Sheet.Damping)
	}
	if c.Sheet.ThresholdFraction < 0 || c.Sheet.ThresholdFraction >= 1 {
		return fmt.Errorf("sheet.threshold_fraction must be within [0, 1), got %v", c.Sheet.ThresholdFraction)
	}
	if len(c.Map.HomeCenter) != 2 {
		return fmt.Errorf("map.home_center must be a [lat, lng] pair")
	}
	if c.Favorites.StateKey == "" {
		return fmt.Errorf("favorites.state_key must not be empty")
	}
	return nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Ringroad Configuration
# ----------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
#   Distance: m (meters), km (kilometers), mi (miles)

`)
	data = append(header, data...)

	reEngine := regexp.MustCompile(`(?m)^(\s+)engine:`)
	data = reEngine.ReplaceAll(data, []byte("${1}# Options: remote, none\n${1}engine:"))

	reRestart := regexp.MustCompile(`(?m)^(\s+)restart_on_start:`)
	data = reRestart.ReplaceAll(data, []byte("${1}# true: start while running restarts at the first POI; false: ignored\n${1}restart_on_start:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
