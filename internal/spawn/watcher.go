package spawn

import (
	"sync"

	"scene-editor/internal/asset"
	"scene-editor/internal/cache"
	"scene-editor/internal/resolver"
	"scene-editor/internal/scene"
)

// watcher binds one placeholder node to the aggregate progress of a
// tracked asset set. It recomputes on every tracked cache-entry change
// and pushes status into the tree through the store's update path; it
// performs no I/O of its own.
type watcher struct {
	nodeID string
	store  *scene.Store
	cache  *cache.Cache
	sub    *cache.Subscription

	mu      sync.Mutex
	tracked map[asset.ID]struct{}
	stopped bool
}

func newWatcher(nodeID string, store *scene.Store, c *cache.Cache) *watcher {
	w := &watcher{
		nodeID:  nodeID,
		store:   store,
		cache:   c,
		tracked: make(map[asset.ID]struct{}),
	}
	w.sub = c.Subscribe(w.onEntryChange)
	return w
}

// setTracked swaps the watched id set. The dependency set is only known
// once the prefab document itself has arrived, so a watcher starts out
// tracking just the document asset and widens later.
func (w *watcher) setTracked(ids []asset.ID) {
	w.mu.Lock()
	w.tracked = make(map[asset.ID]struct{}, len(ids))
	for _, id := range ids {
		w.tracked[id] = struct{}{}
	}
	w.mu.Unlock()
	w.push()
}

func (w *watcher) onEntryChange(id asset.ID) {
	w.mu.Lock()
	_, ok := w.tracked[id]
	stopped := w.stopped
	w.mu.Unlock()
	if !ok || stopped {
		return
	}
	w.push()
}

// push recomputes the aggregate and mirrors it onto the placeholder's
// download fields. Terminal error display is owned by the spawn task,
// not the watcher; the watcher only reports liveness and percent.
func (w *watcher) push() {
	w.mu.Lock()
	ids := make([]asset.ID, 0, len(w.tracked))
	for id := range w.tracked {
		ids = append(ids, id)
	}
	w.mu.Unlock()
	entries := make([]cache.Entry, len(ids))
	for i, id := range ids {
		entries[i] = w.cache.Entry(id)
	}
	agg := resolver.Compute(entries)
	_ = w.store.Update(w.nodeID, func(n *scene.Node) {
		n.DownloadProgress = agg.Progress
		if n.DownloadStatus == "" {
			n.DownloadStatus = scene.DownloadPending
		}
	})
}

// stop detaches the watcher from the cache. Safe to call repeatedly.
func (w *watcher) stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	w.mu.Unlock()
	w.sub.Stop()
}
