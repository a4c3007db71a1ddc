// Package resolver ensures a prefab's referenced assets exist in the
// catalog and the content cache, fanning downloads out concurrently and
// folding their progress into one aggregate per consumer.
package resolver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"scene-editor/internal/asset"
	"scene-editor/internal/cache"
	"scene-editor/internal/presets"
)

// defaultDebounce is how long a dependency set may stay busy before its
// aggregate is registered. An all-cached set settles well inside the
// window, so no progress UI ever flashes for it.
const defaultDebounce = 150 * time.Millisecond

// Options configures one EnsureAvailable call.
type Options struct {
	// ProgressKey, when non-empty, keys a ProgressAggregate the UI can
	// observe (typically the spawned placeholder's node id).
	ProgressKey string
	// PackageDir is an optional provider-package directory searched for
	// assets missing from the catalog.
	PackageDir string
	// PackageAssets maps asset ids to filenames inside PackageDir
	// (a prefab document's packageAssetMap).
	PackageAssets map[asset.ID]string
}

// DownloadError records one asset that could not be made available.
// Per-asset failures never abort sibling fetches; they are collected.
type DownloadError struct {
	ID  asset.ID
	Msg string
}

func (e DownloadError) Error() string {
	return fmt.Sprintf("resolver: asset %s: %s", e.ID, e.Msg)
}

// Result reports the outcome of one EnsureAvailable call.
type Result struct {
	Tracked []asset.ID
	Failed  []DownloadError
}

// Resolver resolves dependency sets against the catalog and cache. It
// owns the aggregate registry; the cache owns all storage.
type Resolver struct {
	catalog *asset.Catalog
	cache   *cache.Cache
	presets *presets.Library

	debounce time.Duration

	mu         sync.Mutex
	aggregates map[string]Aggregate
}

// New returns a resolver over the given catalog and cache. presetLib
// may be nil to disable the placeholder fallback tier.
func New(cat *asset.Catalog, c *cache.Cache, presetLib *presets.Library) *Resolver {
	return &Resolver{
		catalog:    cat,
		cache:      c,
		presets:    presetLib,
		debounce:   defaultDebounce,
		aggregates: make(map[string]Aggregate),
	}
}

// Aggregate returns the registered aggregate for key, if any. A key
// that never appears means the dependency set finished without errors
// before it was worth showing.
func (r *Resolver) Aggregate(key string) (Aggregate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.aggregates[key]
	return a, ok
}

func (r *Resolver) setAggregate(key string, a Aggregate) {
	r.mu.Lock()
	r.aggregates[key] = a
	r.mu.Unlock()
}

func (r *Resolver) dropAggregate(key string) {
	r.mu.Lock()
	delete(r.aggregates, key)
	r.mu.Unlock()
}

// computeFor derives the aggregate for a tracked id set from current
// cache entries.
func (r *Resolver) computeFor(ids []asset.ID) Aggregate {
	entries := make([]cache.Entry, len(ids))
	for i, id := range ids {
		entries[i] = r.cache.Entry(id)
	}
	return Compute(entries)
}

// EnsureAvailable makes every id fetchable from the cache: ids missing
// from the catalog are satisfied from the provider package directory,
// then from the placeholder preset catalog, and otherwise marked
// failed; everything resolvable is then fetched concurrently and
// independently. The call blocks until all tracked ids settle. One
// asset's failure never blocks or cancels another's fetch.
func (r *Resolver) EnsureAvailable(ctx context.Context, ids []asset.ID, opts Options) (Result, error) {
	tracked := dedup(ids)
	res := Result{Tracked: tracked}
	if len(tracked) == 0 {
		return res, nil
	}

	for _, id := range tracked {
		if r.cache.Has(id) {
			r.cache.Touch(id)
			continue
		}
		if r.catalog.Has(id) {
			continue
		}
		if r.resolveFromPackage(id, opts) {
			continue
		}
		if r.resolveFromPresets(id) {
			continue
		}
		r.cache.MarkError(id, fmt.Sprintf("asset %s not found in any source", id))
	}

	watch := r.watchProgress(opts.ProgressKey, tracked)

	var mu sync.Mutex
	fail := func(id asset.ID, msg string) {
		mu.Lock()
		res.Failed = append(res.Failed, DownloadError{ID: id, Msg: msg})
		mu.Unlock()
	}

	var g errgroup.Group
	for _, id := range tracked {
		id := id
		entry := r.cache.Entry(id)
		if entry.Status == cache.StatusCached {
			continue
		}
		if entry.Status == cache.StatusError && !r.catalog.Has(id) {
			fail(id, entry.Error)
			continue
		}
		g.Go(func() error {
			if err := r.fetch(ctx, id, opts); err != nil {
				fail(id, err.Error())
			}
			// Errors are collected, not returned: returning one would
			// cancel the group and starve sibling fetches.
			return nil
		})
	}
	_ = g.Wait()

	watch.finish()

	if len(res.Failed) > 0 {
		log.WithField("prefix", "resolver").Debugf("%d of %d assets failed: %v", len(res.Failed), len(tracked), res.Failed)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// fetch makes one asset's bytes cached, by whatever its index entry
// says its source is. A second fetch for an id already downloading
// joins the in-flight transfer inside the cache.
func (r *Resolver) fetch(ctx context.Context, id asset.ID, opts Options) error {
	entry, ok := r.catalog.Lookup(id)
	if !ok {
		return fmt.Errorf("no catalog entry")
	}
	switch entry.Source {
	case asset.SourceRemote:
		return r.cache.Download(ctx, id, entry.URL, entry.Name)
	case asset.SourceLocal:
		e, err := r.cache.LoadFromStore(id)
		if err != nil {
			return err
		}
		if e.Status != cache.StatusCached {
			msg := "missing from local store"
			r.cache.MarkError(id, msg)
			return fmt.Errorf("%s", msg)
		}
		return nil
	case asset.SourcePackage:
		name := entry.FileName
		if name == "" {
			name = entry.ProviderID
		}
		if fromMap, ok := opts.PackageAssets[id]; ok {
			name = fromMap
		}
		data, err := os.ReadFile(filepath.Join(opts.PackageDir, name))
		if err != nil {
			r.cache.MarkError(id, err.Error())
			return err
		}
		return r.cache.StoreBlob(id, data, entry.ContentType, name)
	default:
		msg := fmt.Sprintf("unknown asset source %q", entry.Source)
		r.cache.MarkError(id, msg)
		return fmt.Errorf("%s", msg)
	}
}

// resolveFromPackage satisfies a catalog-miss from the provider package
// directory, registering a package-sourced catalog entry when the named
// file exists.
func (r *Resolver) resolveFromPackage(id asset.ID, opts Options) bool {
	if opts.PackageDir == "" {
		return false
	}
	name, ok := opts.PackageAssets[id]
	if !ok {
		return false
	}
	if _, err := os.Stat(filepath.Join(opts.PackageDir, name)); err != nil {
		return false
	}
	r.catalog.AddIfAbsent(id, asset.IndexEntry{
		Name:     name,
		Kind:     asset.KindMesh,
		Source:   asset.SourcePackage,
		FileName: name,
	})
	return true
}

// resolveFromPresets satisfies a catalog-miss with generic placeholder
// bytes stored straight into the cache.
func (r *Resolver) resolveFromPresets(id asset.ID) bool {
	if r.presets == nil {
		return false
	}
	p, ok := r.presets.Lookup(asset.KindMesh)
	if !ok {
		return false
	}
	if err := r.cache.StoreBlob(id, p.Data, p.ContentType, p.FileName); err != nil {
		log.WithField("prefix", "resolver").Warnf("preset store for %s: %v", id, err)
		return false
	}
	return true
}

func dedup(ids []asset.ID) []asset.ID {
	set := make(map[asset.ID]struct{}, len(ids))
	out := make([]asset.ID, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := set[id]; ok {
			continue
		}
		set[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
