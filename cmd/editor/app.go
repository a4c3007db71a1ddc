package main

import (
	"fmt"
	"path/filepath"
	"strings"

	hackpados "github.com/hack-pad/hackpadfs/os"

	"scene-editor/internal/asset"
	"scene-editor/internal/cache"
	"scene-editor/internal/config"
	"scene-editor/internal/library"
	"scene-editor/internal/presets"
	"scene-editor/internal/scene"
)

// app holds the collaborators every subcommand shares: the content
// cache, the preset catalog and the prefab library. Scene stores and
// asset catalogs are per scene file and loaded by each command.
type app struct {
	prefs   config.Prefs
	cache   *cache.Cache
	presets *presets.Library
	library *library.Library
}

func newApp(prefs config.Prefs) (*app, error) {
	cacheDir, err := filepath.Abs(prefs.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("editor: %w", err)
	}
	c, err := cache.New(hackpados.NewFS(), strings.TrimPrefix(filepath.ToSlash(cacheDir), "/"))
	if err != nil {
		return nil, err
	}
	presetLib, err := presets.Load(prefs.PresetFile)
	if err != nil {
		return nil, err
	}
	lib, err := library.New(prefs.PrefabDir)
	if err != nil {
		return nil, err
	}
	return &app{prefs: prefs, cache: c, presets: presetLib, library: lib}, nil
}

// loadScene reads a scene file into a store plus its asset catalog. An
// empty path yields a fresh scene.
func (a *app) loadScene(path string) (*scene.Store, *asset.Catalog, error) {
	if path == "" {
		return scene.NewStore(), asset.NewCatalog(), nil
	}
	return scene.LoadFile(path)
}
