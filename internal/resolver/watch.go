package resolver

import (
	"sync"
	"time"

	"scene-editor/internal/asset"
)

// progressWatch binds one EnsureAvailable call's tracked id set to the
// aggregate registry. Registration is debounced: a dependency set that
// settles cleanly inside the window never appears in the registry, so
// already-cached spawns never flash progress UI. Once registered, the
// aggregate is recomputed on every tracked cache-entry change; the
// recomputation itself does no I/O.
type progressWatch struct {
	r       *Resolver
	key     string
	tracked []asset.ID

	sub   interface{ Stop() }
	timer *time.Timer

	mu         sync.Mutex
	registered bool
	finished   bool
}

// watchProgress starts tracking. An empty key disables the watch
// entirely (no aggregate is ever produced).
func (r *Resolver) watchProgress(key string, tracked []asset.ID) *progressWatch {
	w := &progressWatch{r: r, key: key, tracked: tracked}
	if key == "" {
		return w
	}
	set := make(map[asset.ID]struct{}, len(tracked))
	for _, id := range tracked {
		set[id] = struct{}{}
	}
	w.sub = r.cache.Subscribe(func(id asset.ID) {
		if _, ok := set[id]; ok {
			w.update()
		}
	})
	w.timer = time.AfterFunc(r.debounce, w.onDebounce)
	return w
}

func (w *progressWatch) onDebounce() {
	w.mu.Lock()
	if w.finished {
		w.mu.Unlock()
		return
	}
	agg := w.r.computeFor(w.tracked)
	if agg.Settled() && agg.Error == "" {
		// Everything finished cleanly before the window closed; nothing
		// worth showing.
		w.mu.Unlock()
		return
	}
	w.registered = true
	w.mu.Unlock()
	w.r.setAggregate(w.key, agg)
}

func (w *progressWatch) update() {
	w.mu.Lock()
	ok := w.registered && !w.finished
	w.mu.Unlock()
	if !ok {
		return
	}
	w.r.setAggregate(w.key, w.r.computeFor(w.tracked))
}

// finish runs after all tracked ids settled: a clean set is removed
// from the registry ("done, nothing to show"), a set with failures
// stays registered, inactive, with the summarized error.
func (w *progressWatch) finish() {
	if w.key == "" {
		return
	}
	w.mu.Lock()
	w.finished = true
	registered := w.registered
	w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	if w.sub != nil {
		w.sub.Stop()
	}
	agg := w.r.computeFor(w.tracked)
	if agg.Error == "" {
		if registered {
			w.r.dropAggregate(w.key)
		}
		return
	}
	agg.Active = false
	w.r.setAggregate(w.key, agg)
}
