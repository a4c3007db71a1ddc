// Package config holds editor preferences. Persisted as a JSON file;
// a missing or invalid file silently falls back to defaults, and
// environment variables override individual fields.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// DefaultPath is the path to the editor config file, relative to the
// process working directory.
const DefaultPath = "config/editor.json"

// Prefs holds editor-only preferences. In-scene data is separate and
// handled by the scene store.
type Prefs struct {
	PrefabDir  string `json:"prefab_dir"`
	CacheDir   string `json:"cache_dir"`
	PackageDir string `json:"package_dir,omitempty"`
	PresetFile string `json:"preset_file,omitempty"`
	LogLevel   string `json:"log_level,omitempty"`
}

// Default returns default preferences.
func Default() Prefs {
	return Prefs{
		PrefabDir: "assets/prefabs",
		CacheDir:  "cache",
		LogLevel:  "info",
	}
}

// Load reads preferences from path. If the file is missing or invalid,
// returns Default() and does not create a file. Environment overrides
// (EDITOR_PREFAB_DIR, EDITOR_CACHE_DIR, EDITOR_PACKAGE_DIR,
// EDITOR_LOG_LEVEL) apply on top either way.
func Load(path string) (Prefs, error) {
	p := Default()
	if data, err := os.ReadFile(path); err == nil {
		var loaded Prefs
		if err := json.Unmarshal(data, &loaded); err == nil {
			p = loaded
			if p.PrefabDir == "" {
				p.PrefabDir = Default().PrefabDir
			}
			if p.CacheDir == "" {
				p.CacheDir = Default().CacheDir
			}
			if p.LogLevel == "" {
				p.LogLevel = Default().LogLevel
			}
		}
	}
	applyEnv(&p)
	return p, nil
}

// Save writes preferences to path, creating the directory if needed.
func Save(path string, p Prefs) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "\t")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func applyEnv(p *Prefs) {
	if v := os.Getenv("EDITOR_PREFAB_DIR"); v != "" {
		p.PrefabDir = v
	}
	if v := os.Getenv("EDITOR_CACHE_DIR"); v != "" {
		p.CacheDir = v
	}
	if v := os.Getenv("EDITOR_PACKAGE_DIR"); v != "" {
		p.PackageDir = v
	}
	if v := os.Getenv("EDITOR_LOG_LEVEL"); v != "" {
		p.LogLevel = v
	}
}
