package cache

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/h2non/filetype"
	"github.com/hack-pad/hackpadfs"
	log "github.com/sirupsen/logrus"

	"scene-editor/internal/asset"
	"scene-editor/internal/download"
)

// Status is the lifecycle state of one cache entry.
type Status string

const (
	StatusAbsent      Status = "absent"
	StatusDownloading Status = "downloading"
	StatusCached      Status = "cached"
	StatusError       Status = "error"
)

// Entry is the per-asset cache record. Entries are the sole source of
// truth for "is this asset ready": everything that consumes assets
// (resolver, progress aggregation, placeholder UI) reads them.
type Entry struct {
	ID          asset.ID
	Status      Status
	Progress    int // 0..100, meaningful while downloading
	Error       string
	FileName    string
	ContentType string
	Size        int64
	LastUsed    time.Time
}

// Terminal reports whether the entry has settled (cached or error).
func (e Entry) Terminal() bool {
	return e.Status == StatusCached || e.Status == StatusError
}

// Subscription is a registered entry-change callback. Stop unregisters
// it; stopping twice is harmless.
type Subscription struct {
	id int
	c  *Cache
}

// Stop unregisters the subscription.
func (s *Subscription) Stop() {
	if s == nil || s.c == nil {
		return
	}
	s.c.mu.Lock()
	delete(s.c.subs, s.id)
	s.c.mu.Unlock()
	s.c = nil
}

// flight tracks one in-progress download so concurrent callers for the
// same id join it instead of fetching twice.
type flight struct {
	done chan struct{}
	err  error
}

// Cache is the keyed blob store for asset bytes. Blobs live on an
// hackpadfs filesystem under dir; entry state lives in memory. At most
// one download per id is in flight at a time.
type Cache struct {
	fs  hackpadfs.FS
	dir string

	mu       sync.Mutex
	entries  map[asset.ID]*Entry
	inflight map[asset.ID]*flight
	subs     map[int]func(asset.ID)
	nextSub  int
}

// New returns a cache storing blobs under dir on fsys, creating the
// directory if needed.
func New(fsys hackpadfs.FS, dir string) (*Cache, error) {
	if err := hackpadfs.MkdirAll(fsys, dir, 0755); err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &Cache{
		fs:       fsys,
		dir:      dir,
		entries:  make(map[asset.ID]*Entry),
		inflight: make(map[asset.ID]*flight),
		subs:     make(map[int]func(asset.ID)),
	}, nil
}

// Entry returns a copy of the entry for id. Unknown ids report absent.
func (c *Cache) Entry(id asset.ID) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[id]; ok {
		return *e
	}
	return Entry{ID: id, Status: StatusAbsent}
}

// Has reports whether id's bytes are cached.
func (c *Cache) Has(id asset.ID) bool {
	return c.Entry(id).Status == StatusCached
}

// Touch bumps the entry's last-used time so eviction policies can see
// the asset is still wanted. No-op for unknown ids.
func (c *Cache) Touch(id asset.ID) {
	c.mu.Lock()
	if e, ok := c.entries[id]; ok {
		e.LastUsed = time.Now()
	}
	c.mu.Unlock()
}

// Subscribe registers fn to be called with the id of every entry that
// changes state or progress.
func (c *Cache) Subscribe(fn func(asset.ID)) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSub++
	id := c.nextSub
	c.subs[id] = fn
	return &Subscription{id: id, c: c}
}

func (c *Cache) notify(id asset.ID) {
	c.mu.Lock()
	fns := make([]func(asset.ID), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(id)
	}
}

// blobPath returns the fs path for id's blob, carrying over the
// original file extension when one is known.
func (c *Cache) blobPath(id asset.ID, filename string) string {
	ext := path.Ext(filename)
	return path.Join(c.dir, string(id)+ext)
}

// StoreBlob writes bytes for id and marks the entry cached. When
// contentType is empty it is sniffed from the data.
func (c *Cache) StoreBlob(id asset.ID, data []byte, contentType, filename string) error {
	if contentType == "" {
		if t, err := filetype.Match(data); err == nil && t != filetype.Unknown {
			contentType = t.MIME.Value
			if filename == "" {
				filename = string(id) + "." + t.Extension
			}
		}
	}
	filename = download.SanitizeFilename(filename)
	p := c.blobPath(id, filename)
	f, err := hackpadfs.OpenFile(c.fs, p, hackpadfs.FlagWriteOnly|hackpadfs.FlagCreate|hackpadfs.FlagTruncate, 0644)
	if err != nil {
		return fmt.Errorf("cache: store %s: %w", id, err)
	}
	if _, err := hackpadfs.WriteFile(f, data); err != nil {
		f.Close()
		return fmt.Errorf("cache: store %s: %w", id, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("cache: store %s: %w", id, err)
	}

	c.mu.Lock()
	c.entries[id] = &Entry{
		ID:          id,
		Status:      StatusCached,
		Progress:    100,
		FileName:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		LastUsed:    time.Now(),
	}
	c.mu.Unlock()
	c.notify(id)
	return nil
}

// Blob returns the cached bytes for id.
func (c *Cache) Blob(id asset.ID) ([]byte, error) {
	e := c.Entry(id)
	if e.Status != StatusCached {
		return nil, fmt.Errorf("cache: blob %s: not cached (%s)", id, e.Status)
	}
	data, err := hackpadfs.ReadFile(c.fs, c.blobPath(id, e.FileName))
	if err != nil {
		return nil, fmt.Errorf("cache: blob %s: %w", id, err)
	}
	return data, nil
}

// MarkError records a terminal error for id (e.g. an asset that could
// not be resolved to any source) and notifies subscribers.
func (c *Cache) MarkError(id asset.ID, msg string) {
	c.mu.Lock()
	e, ok := c.entries[id]
	if !ok {
		e = &Entry{ID: id}
		c.entries[id] = e
	}
	e.Status = StatusError
	e.Error = msg
	e.Progress = 0
	c.mu.Unlock()
	c.notify(id)
}

// Download fetches id's bytes from url and stores them, updating the
// entry's progress as bytes arrive. If a download for id is already in
// flight the call joins it and returns its result; if the entry is
// already cached the call returns immediately. label is only used for
// logging.
func (c *Cache) Download(ctx context.Context, id asset.ID, url, label string) error {
	c.mu.Lock()
	if e, ok := c.entries[id]; ok && e.Status == StatusCached {
		c.mu.Unlock()
		return nil
	}
	if fl, ok := c.inflight[id]; ok {
		c.mu.Unlock()
		select {
		case <-fl.done:
			return fl.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	fl := &flight{done: make(chan struct{})}
	c.inflight[id] = fl
	c.entries[id] = &Entry{ID: id, Status: StatusDownloading, LastUsed: time.Now()}
	c.mu.Unlock()
	c.notify(id)

	log.WithField("prefix", "cache").Debugf("downloading %s (%s)", label, id)
	fl.err = c.fetch(ctx, id, url)
	if fl.err != nil {
		c.mu.Lock()
		e := c.entries[id]
		e.Status = StatusError
		e.Error = fl.err.Error()
		c.mu.Unlock()
		c.notify(id)
		log.WithField("prefix", "cache").Warnf("download failed for %s: %v", label, fl.err)
	}

	c.mu.Lock()
	delete(c.inflight, id)
	c.mu.Unlock()
	close(fl.done)
	return fl.err
}

func (c *Cache) fetch(ctx context.Context, id asset.ID, url string) error {
	var buf bytes.Buffer
	info, err := download.Fetch(ctx, url, &buf, func(done, total int64) {
		if total <= 0 {
			return
		}
		pct := int(done * 100 / total)
		if pct > 100 {
			pct = 100
		}
		c.mu.Lock()
		if e, ok := c.entries[id]; ok && e.Status == StatusDownloading {
			if pct == e.Progress {
				c.mu.Unlock()
				return
			}
			e.Progress = pct
		}
		c.mu.Unlock()
		c.notify(id)
	})
	if err != nil {
		return err
	}
	return c.StoreBlob(id, buf.Bytes(), info.ContentType, info.FileName)
}

// LoadFromStore checks the persistent blob store for id and, if a blob
// file exists, marks the entry cached without any network I/O.
func (c *Cache) LoadFromStore(id asset.ID) (Entry, error) {
	entries, err := hackpadfs.ReadDir(c.fs, c.dir)
	if err != nil {
		return c.Entry(id), fmt.Errorf("cache: load %s: %w", id, err)
	}
	for _, de := range entries {
		name := de.Name()
		if name != string(id) && !strings.HasPrefix(name, string(id)+".") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			return c.Entry(id), fmt.Errorf("cache: load %s: %w", id, err)
		}
		c.mu.Lock()
		c.entries[id] = &Entry{
			ID:       id,
			Status:   StatusCached,
			Progress: 100,
			FileName: name,
			Size:     info.Size(),
			LastUsed: time.Now(),
		}
		c.mu.Unlock()
		c.notify(id)
		return c.Entry(id), nil
	}
	return c.Entry(id), nil
}
