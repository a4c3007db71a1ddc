// Package spawn manages placeholder lifecycles: a stand-in node goes
// into the tree immediately, its download progress streams onto it, and
// exactly once it is either replaced by the instantiated prefab or
// flipped to an error state the user can see in place.
package spawn

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"scene-editor/internal/asset"
	"scene-editor/internal/cache"
	"scene-editor/internal/prefab"
	"scene-editor/internal/resolver"
	"scene-editor/internal/scene"
)

// Result is delivered once per spawn: the instantiated node's id on
// success, or the error that left the placeholder in its errored state.
type Result struct {
	NodeID string
	Err    error
}

// Manager owns pending spawns and their progress watchers. Exactly one
// watcher exists per placeholder id; registering a new one for the same
// id always stops and replaces the old one, so repeated retries never
// leak subscriptions.
type Manager struct {
	store      *scene.Store
	catalog    *asset.Catalog
	cache      *cache.Cache
	resolver   *resolver.Resolver
	packageDir string

	mu       sync.Mutex
	watchers map[string]*watcher
}

// NewManager wires a spawn manager over the editor's collaborators.
// packageDir may be empty.
func NewManager(store *scene.Store, cat *asset.Catalog, c *cache.Cache, r *resolver.Resolver, packageDir string) *Manager {
	return &Manager{
		store:      store,
		catalog:    cat,
		cache:      c,
		resolver:   r,
		packageDir: packageDir,
		watchers:   make(map[string]*watcher),
	}
}

// register installs a watcher for nodeID, stopping any previous one.
func (m *Manager) register(nodeID string, w *watcher) {
	m.mu.Lock()
	old := m.watchers[nodeID]
	m.watchers[nodeID] = w
	m.mu.Unlock()
	if old != nil {
		old.stop()
	}
}

// StopWatcher stops and removes the watcher for nodeID, if any. This is
// the cooperative "stop caring about this spawn's progress"; in-flight
// fetches for shared assets keep running for other consumers.
func (m *Manager) StopWatcher(nodeID string) {
	m.mu.Lock()
	w := m.watchers[nodeID]
	delete(m.watchers, nodeID)
	m.mu.Unlock()
	if w != nil {
		w.stop()
	}
}

// StopAll stops every live watcher (editor shutdown, project close).
func (m *Manager) StopAll() {
	m.mu.Lock()
	ws := make([]*watcher, 0, len(m.watchers))
	for _, w := range m.watchers {
		ws = append(ws, w)
	}
	m.watchers = make(map[string]*watcher)
	m.mu.Unlock()
	for _, w := range ws {
		w.stop()
	}
}

// WatcherCount returns the number of live watchers.
func (m *Manager) WatcherCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.watchers)
}

// SpawnWithPlaceholder inserts a placeholder for the prefab asset
// synchronously, then instantiates the real subtree in the background.
// On success the placeholder is removed and replaced by the result; on
// failure it stays in the tree flipped to an errored state, so the user
// can retry or delete it instead of silently losing the spawn. Bad
// asset references (unknown id, non-prefab asset) fail fast before any
// placeholder or cache I/O.
func (m *Manager) SpawnWithPlaceholder(ctx context.Context, prefabID asset.ID, parentID string, pos *scene.Vec3) (string, <-chan Result, error) {
	if err := prefab.CheckRef(m.catalog, prefabID); err != nil {
		return "", nil, err
	}
	if parentID == "" {
		parentID = m.store.Root().ID
	}

	entry, _ := m.catalog.Lookup(prefabID)
	ph := scene.NewNode(scene.TypeMesh)
	ph.Name = entry.Name
	if ph.Name == "" {
		ph.Name = "prefab"
	}
	ph.Placeholder = true
	ph.DownloadStatus = scene.DownloadPending
	if pos != nil {
		ph.Position = *pos
	} else {
		ph.Position = m.store.FindSpawnPoint(ph.Scale)
	}
	if err := m.store.Insert(parentID, ph, -1); err != nil {
		return "", nil, err
	}
	// The placeholder insert is its own history op so undo can take the
	// pending spawn out of the tree.
	m.store.Snapshot(scene.Op{
		Label:    "spawn " + ph.Name,
		Kind:     scene.PatchInsert,
		NodeID:   ph.ID,
		ParentID: parentID,
	})

	w := newWatcher(ph.ID, m.store, m.cache)
	w.setTracked([]asset.ID{prefabID})
	m.register(ph.ID, w)

	done := make(chan Result, 1)
	go m.run(ctx, prefabID, parentID, ph.ID, ph.Position, done)
	return ph.ID, done, nil
}

// run is the async half of a spawn. It finishes the placeholder exactly
// once: replace on success, flip to errored on failure.
func (m *Manager) run(ctx context.Context, prefabID asset.ID, parentID, phID string, pos scene.Vec3, done chan<- Result) {
	fail := func(err error) {
		m.StopWatcher(phID)
		_ = m.store.Update(phID, func(n *scene.Node) {
			n.DownloadStatus = scene.DownloadErrored
			n.DownloadError = err.Error()
		})
		log.WithField("prefix", "spawn").Warnf("spawn of %s failed: %v", prefabID, err)
		done <- Result{Err: err}
	}

	res, err := m.resolver.EnsureAvailable(ctx, []asset.ID{prefabID}, resolver.Options{
		ProgressKey: phID,
		PackageDir:  m.packageDir,
	})
	if err != nil {
		fail(err)
		return
	}
	for _, f := range res.Failed {
		if f.ID == prefabID {
			fail(f)
			return
		}
	}

	doc, err := prefab.LoadCached(m.cache, prefabID)
	if err != nil {
		fail(err)
		return
	}

	if w := m.watcher(phID); w != nil {
		w.setTracked(prefab.Collect(doc.Root))
	}

	node, _, err := prefab.Instantiate(ctx, doc, prefab.Env{
		Catalog:  m.catalog,
		Resolver: m.resolver,
		Store:    m.store,
	}, prefab.InstantiateOptions{
		ParentID:    parentID,
		Position:    &pos,
		ProgressKey: phID,
		LinkPrefab:  true,
		SourceID:    prefabID,
		PackageDir:  m.packageDir,
	})
	if err != nil {
		fail(err)
		return
	}

	m.StopWatcher(phID)
	_ = m.store.Update(phID, func(n *scene.Node) {
		n.DownloadStatus = scene.DownloadReady
		n.DownloadProgress = 100
	})
	if err := m.store.Remove(phID); err != nil {
		fail(err)
		return
	}
	if err := m.store.Insert(parentID, node, -1); err != nil {
		fail(err)
		return
	}
	m.store.Snapshot(scene.Op{
		Label:    "instantiate " + doc.Name,
		Kind:     scene.PatchInsert,
		NodeID:   node.ID,
		ParentID: parentID,
	})
	m.store.Select(node.ID)
	done <- Result{NodeID: node.ID}
}

func (m *Manager) watcher(nodeID string) *watcher {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.watchers[nodeID]
}
