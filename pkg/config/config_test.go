package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "ringroad.yaml")

	tests := []struct {
		name          string
		setup         func(t *testing.T)
		validate      func(*testing.T, *Config)
		checkFile     func(*testing.T)
		expectedError bool
	}{
		{
			name:  "NewFile_Defaults",
			setup: func(t *testing.T) {},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Narration.Engine != "remote" {
					t.Errorf("expected default engine 'remote', got '%s'", cfg.Narration.Engine)
				}
				if cfg.Tour.FallbackMin.Std() != 8*time.Second {
					t.Errorf("expected fallback_min 8s, got %v", cfg.Tour.FallbackMin.Std())
				}
				if len(cfg.Favorites.Milestones) != 2 {
					t.Errorf("expected 2 default milestones, got %v", cfg.Favorites.Milestones)
				}
			},
			checkFile: func(t *testing.T) {
				content, err := os.ReadFile(configPath)
				if err != nil {
					t.Fatalf("failed to read config file: %v", err)
				}
				if !strings.Contains(string(content), "engine: remote") {
					t.Error("config file missing default values")
				}
				if !strings.Contains(string(content), "# Options: remote, none") {
					t.Error("config file missing engine comment")
				}
			},
		},
		{
			name: "ExistingFile_Override",
			setup: func(t *testing.T) {
				data := "narration:\n  engine: none\ntour:\n  pause: 5s\n  restart_on_start: true\nsheet:\n  damping: 0.5\n"
				if err := os.WriteFile(configPath, []byte(data), 0o644); err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Narration.Engine != "none" {
					t.Errorf("expected engine 'none', got '%s'", cfg.Narration.Engine)
				}
				if cfg.Tour.Pause.Std() != 5*time.Second {
					t.Errorf("expected pause 5s, got %v", cfg.Tour.Pause.Std())
				}
				if !cfg.Tour.RestartOnStart {
					t.Error("expected restart_on_start true")
				}
				if cfg.Sheet.Damping != 0.5 {
					t.Errorf("expected damping 0.5, got %v", cfg.Sheet.Damping)
				}
				// Untouched sections keep defaults
				if cfg.Map.Breakpoint != 768 {
					t.Errorf("expected default breakpoint 768, got %d", cfg.Map.Breakpoint)
				}
			},
			checkFile: func(t *testing.T) {
				content, err := os.ReadFile(configPath)
				if err != nil {
					t.Fatalf("failed to read config file: %v", err)
				}
				if strings.Contains(string(content), "breakpoint_px") {
					t.Error("existing config file must not be rewritten")
				}
			},
		},
		{
			name: "Env_Override",
			setup: func(t *testing.T) {
				t.Setenv("RINGROAD_CATALOG", "https://example.com/pois.json")
				if err := os.WriteFile(configPath, []byte("catalog:\n  source: ./local.json\n"), 0o644); err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Catalog.Source != "https://example.com/pois.json" {
					t.Errorf("expected env catalog source, got '%s'", cfg.Catalog.Source)
				}
			},
		},
		{
			name: "Invalid_Engine",
			setup: func(t *testing.T) {
				if err := os.WriteFile(configPath, []byte("narration:\n  engine: espeak\n"), 0o644); err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			expectedError: true,
		},
		{
			name: "Invalid_Damping",
			setup: func(t *testing.T) {
				if err := os.WriteFile(configPath, []byte("sheet:\n  damping: 1.5\n"), 0o644); err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			expectedError: true,
		},
		{
			name: "Malformed_YAML",
			setup: func(t *testing.T) {
				if err := os.WriteFile(configPath, []byte("tour: [unclosed"), 0o644); err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Remove(configPath)
			tt.setup(t)

			cfg, err := Load(configPath)
			if tt.expectedError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
			if tt.checkFile != nil {
				tt.checkFile(t)
			}
		})
	}
}

func TestGenerateDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ringroad.yaml")

	if err := GenerateDefault(path); err != nil {
		t.Fatalf("GenerateDefault failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	// Existing files are left alone
	if err := os.WriteFile(path, []byte("custom: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := GenerateDefault(path); err != nil {
		t.Fatalf("GenerateDefault failed on existing file: %v", err)
	}
	content, _ := os.ReadFile(path)
	if string(content) != "custom: true\n" {
		t.Errorf("existing file was overwritten: %q", content)
	}
}
