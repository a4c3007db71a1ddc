package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"

	"scene-editor/internal/asset"
	"scene-editor/internal/commands"
	"scene-editor/internal/library"
	"scene-editor/internal/prefab"
	"scene-editor/internal/resolver"
	"scene-editor/internal/scene"
	"scene-editor/internal/spawn"
)

func (a *app) registerCommands(reg *commands.Registry) {
	a.registerPack(reg)
	a.registerInspect(reg)
	a.registerSpawn(reg)
	a.registerInstall(reg)
	a.registerWatch(reg)
	a.registerPresets(reg)
}

// pack serializes a scene node's subtree into a prefab file: bake the
// transforms into root-relative space, strip runtime state, embed the
// asset-index subset, save under the sanitized name.
func (a *app) registerPack(reg *commands.Registry) {
	fs := flag.NewFlagSet("pack", flag.ContinueOnError)
	scenePath := fs.String("scene", "", "scene file to read")
	nodeID := fs.String("node", "", "id of the node to pack")
	name := fs.String("name", "", "prefab name (defaults to the node's name)")
	reg.Register("pack", "save a scene subtree as a prefab", fs, func(args []string) error {
		store, cat, err := a.loadScene(*scenePath)
		if err != nil {
			return err
		}
		node := store.Lookup(*nodeID)
		if node == nil {
			return fmt.Errorf("pack: node %s not found", *nodeID)
		}
		prefabName := *name
		if prefabName == "" {
			prefabName = node.Name
		}
		baked, err := prefab.Bake(node)
		if err != nil {
			return err
		}
		doc, err := prefab.Serialize(baked, prefabName)
		if err != nil {
			return err
		}
		doc.EmbedAssetIndex(cat, nil)
		path, err := a.library.Save(doc)
		if err != nil {
			return err
		}
		log.WithField("prefix", "editor").Infof("packed %d nodes into %s", doc.Root.Count(), path)
		return nil
	})
}

// inspect validates a prefab file and describes its contents.
func (a *app) registerInspect(reg *commands.Registry) {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	file := fs.String("file", "", "prefab file to inspect")
	reg.Register("inspect", "validate and describe a prefab file", fs, func(args []string) error {
		data, err := os.ReadFile(*file)
		if err != nil {
			return err
		}
		doc, err := prefab.Deserialize(data)
		if err != nil {
			return err
		}
		deps := prefab.Collect(doc.Root)
		fmt.Printf("name:    %s\n", doc.Name)
		fmt.Printf("version: %d\n", doc.FormatVersion)
		fmt.Printf("nodes:   %d\n", doc.Root.Count())
		fmt.Printf("assets:  %d referenced, %d embedded index entries\n", len(deps), len(doc.AssetIndex))
		for _, id := range deps {
			origin := "unindexed"
			if e, ok := doc.AssetIndex[id]; ok {
				origin = string(e.Source)
			}
			fmt.Printf("  %s (%s)\n", id, origin)
		}
		return nil
	})
}

// spawn instantiates a prefab into a scene, resolving its dependency
// set and reporting aggregate progress while downloads run.
func (a *app) registerSpawn(reg *commands.Registry) {
	fs := flag.NewFlagSet("spawn", flag.ContinueOnError)
	scenePath := fs.String("scene", "", "scene file to modify")
	prefabFile := fs.String("prefab", "", "prefab file to spawn")
	out := fs.String("out", "", "output scene file (defaults to -scene)")
	reg.Register("spawn", "instantiate a prefab into a scene", fs, func(args []string) error {
		store, cat, err := a.loadScene(*scenePath)
		if err != nil {
			return err
		}
		id, err := a.registerPrefabAsset(cat, *prefabFile)
		if err != nil {
			return err
		}
		r := resolver.New(cat, a.cache, a.presets)
		mgr := spawn.NewManager(store, cat, a.cache, r, a.prefs.PackageDir)

		phID, done, err := mgr.SpawnWithPlaceholder(context.Background(), id, "", nil)
		if err != nil {
			return err
		}
		res := a.waitForSpawn(r, phID, done)
		if res.Err != nil {
			return res.Err
		}
		log.WithField("prefix", "editor").Infof("spawned node %s", res.NodeID)

		target := *out
		if target == "" {
			target = *scenePath
		}
		if target == "" {
			return fmt.Errorf("spawn: no output scene file (use -out)")
		}
		return scene.SaveFile(target, store, cat)
	})
}

// registerPrefabAsset stores a prefab file's bytes in the cache and
// registers it in the catalog so it can be spawned by asset id.
func (a *app) registerPrefabAsset(cat *asset.Catalog, path string) (asset.ID, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	doc, err := prefab.Deserialize(data)
	if err != nil {
		return "", err
	}
	id := asset.NewID()
	if err := a.cache.StoreBlob(id, data, "application/json", prefab.FileName(doc.Name)); err != nil {
		return "", err
	}
	cat.Add(id, asset.IndexEntry{
		Name:   doc.Name,
		Kind:   asset.KindPrefab,
		Source: asset.SourceLocal,
	})
	return id, nil
}

// waitForSpawn blocks until the spawn settles, echoing aggregate
// progress as it moves.
func (a *app) waitForSpawn(r *resolver.Resolver, phID string, done <-chan spawn.Result) spawn.Result {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	last := -1
	for {
		select {
		case res := <-done:
			return res
		case <-ticker.C:
			if agg, ok := r.Aggregate(phID); ok && agg.Progress != last {
				last = agg.Progress
				log.WithField("prefix", "editor").Infof("downloading dependencies: %d%%", agg.Progress)
			}
		}
	}
}

// install extracts a provider asset package into the configured package
// directory, where the resolver's package tier picks its files up.
func (a *app) registerInstall(reg *commands.Registry) {
	fs := flag.NewFlagSet("install", flag.ContinueOnError)
	pkg := fs.String("package", "", "asset package zip to install")
	reg.Register("install", "install an asset package into the package dir", fs, func(args []string) error {
		if *pkg == "" {
			return fmt.Errorf("install: no package file (use -package)")
		}
		dir := a.prefs.PackageDir
		if dir == "" {
			return fmt.Errorf("install: no package dir configured (set package_dir or EDITOR_PACKAGE_DIR)")
		}
		files, err := library.InstallPackage(*pkg, dir)
		if err != nil {
			return err
		}
		log.WithField("prefix", "editor").Infof("installed %d files into %s", len(files), dir)
		return nil
	})
}

// watch lists the prefab library and then reports external changes to
// it until interrupted, the same change feed the palette refreshes on.
func (a *app) registerWatch(reg *commands.Registry) {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	reg.Register("watch", "list library prefabs and report changes until interrupted", fs, func(args []string) error {
		names, err := a.library.List()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		w, err := a.library.Watch(func(name string) {
			log.WithField("prefix", "editor").Infof("library changed: %s", name)
		})
		if err != nil {
			return err
		}
		defer w.Stop()
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt)
		<-sig
		return nil
	})
}

// presets lists the placeholder preset catalog.
func (a *app) registerPresets(reg *commands.Registry) {
	fs := flag.NewFlagSet("presets", flag.ContinueOnError)
	reg.Register("presets", "list placeholder presets", fs, func(args []string) error {
		for _, p := range a.presets.All() {
			fmt.Printf("%-12s %-20s %s (%d bytes)\n", p.Kind, p.Name, p.ContentType, len(p.Data))
		}
		return nil
	})
}
