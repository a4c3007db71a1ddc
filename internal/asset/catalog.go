package asset

import (
	"sort"
	"sync"
)

// Catalog maps asset ids to their index entries. It is the project's
// authoritative asset lookup table: prefab documents embed filtered
// snapshots of it, and instantiation merges those snapshots back in
// without ever overwriting what the project already knows.
type Catalog struct {
	mu      sync.RWMutex
	entries map[ID]IndexEntry
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[ID]IndexEntry)}
}

// Lookup returns the entry for id, if present.
func (c *Catalog) Lookup(id ID) (IndexEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	return e, ok
}

// Has reports whether id is registered.
func (c *Catalog) Has(id ID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[id]
	return ok
}

// Add registers entry under id, replacing any existing entry.
func (c *Catalog) Add(id ID, entry IndexEntry) {
	c.mu.Lock()
	c.entries[id] = entry
	c.mu.Unlock()
}

// AddIfAbsent registers entry under id only if the catalog has no entry
// for it yet. Returns true if the entry was added. Local project data
// always wins over snapshots embedded in prefab files.
func (c *Catalog) AddIfAbsent(id ID, entry IndexEntry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[id]; ok {
		return false
	}
	c.entries[id] = entry
	return true
}

// Merge adds every entry from src whose id is in keep and not already
// present. Returns the number of entries added.
func (c *Catalog) Merge(src map[ID]IndexEntry, keep map[ID]struct{}) int {
	added := 0
	for id, e := range src {
		if _, ok := keep[id]; !ok {
			continue
		}
		if c.AddIfAbsent(id, e) {
			added++
		}
	}
	return added
}

// Subset returns a copy of the entries for exactly the given ids,
// skipping ids the catalog does not know. Used to embed a
// self-contained asset index into a prefab document without dragging
// the whole project catalog along.
func (c *Catalog) Subset(ids []ID) map[ID]IndexEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[ID]IndexEntry, len(ids))
	for _, id := range ids {
		if e, ok := c.entries[id]; ok {
			out[id] = e
		}
	}
	return out
}

// IDs returns all registered ids in sorted order.
func (c *Catalog) IDs() []ID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ID, 0, len(c.entries))
	for id := range c.entries {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of registered entries.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
