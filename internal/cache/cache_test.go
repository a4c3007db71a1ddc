package cache

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hack-pad/hackpadfs/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scene-editor/internal/asset"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	fsys, err := mem.NewFS()
	require.NoError(t, err)
	c, err := New(fsys, "cache")
	require.NoError(t, err)
	return c
}

func TestEntryDefaultsToAbsent(t *testing.T) {
	c := newTestCache(t)
	e := c.Entry("nope")
	assert.Equal(t, StatusAbsent, e.Status)
	assert.False(t, c.Has("nope"))
}

func TestStoreBlobAndReadBack(t *testing.T) {
	c := newTestCache(t)
	id := asset.ID("tex-1")
	require.NoError(t, c.StoreBlob(id, []byte("payload"), "image/png", "wood.png"))

	e := c.Entry(id)
	assert.Equal(t, StatusCached, e.Status)
	assert.Equal(t, 100, e.Progress)
	assert.Equal(t, "image/png", e.ContentType)
	assert.True(t, c.Has(id))

	data, err := c.Blob(id)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestStoreBlobSniffsContentType(t *testing.T) {
	c := newTestCache(t)
	// Minimal PNG magic; filetype only needs the header.
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}
	id := asset.ID("sniffed")
	require.NoError(t, c.StoreBlob(id, png, "", ""))
	assert.Equal(t, "image/png", c.Entry(id).ContentType)
}

func TestBlobNotCached(t *testing.T) {
	c := newTestCache(t)
	_, err := c.Blob("missing")
	assert.Error(t, err)
}

func TestMarkError(t *testing.T) {
	c := newTestCache(t)
	var notified []asset.ID
	sub := c.Subscribe(func(id asset.ID) { notified = append(notified, id) })
	defer sub.Stop()

	c.MarkError("bad", "no source")
	e := c.Entry("bad")
	assert.Equal(t, StatusError, e.Status)
	assert.Equal(t, "no source", e.Error)
	assert.True(t, e.Terminal())
	assert.Contains(t, notified, asset.ID("bad"))
}

func TestSubscriptionStop(t *testing.T) {
	c := newTestCache(t)
	count := 0
	sub := c.Subscribe(func(asset.ID) { count++ })
	c.MarkError("a", "x")
	sub.Stop()
	sub.Stop() // second stop is a no-op
	c.MarkError("b", "x")
	assert.Equal(t, 1, count)
}

func TestDownloadStoresAndReportsProgress(t *testing.T) {
	body := make([]byte, 64*1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Length", fmt.Sprint(len(body)))
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	c := newTestCache(t)
	id := asset.ID("mesh-1")

	var mu sync.Mutex
	var statuses []Status
	sub := c.Subscribe(func(changed asset.ID) {
		mu.Lock()
		statuses = append(statuses, c.Entry(changed).Status)
		mu.Unlock()
	})
	defer sub.Stop()

	require.NoError(t, c.Download(context.Background(), id, srv.URL+"/mesh.bin", "mesh"))
	assert.True(t, c.Has(id))

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, statuses)
	assert.Equal(t, StatusDownloading, statuses[0])
	assert.Equal(t, StatusCached, statuses[len(statuses)-1])
}

func TestDownloadFailureMarksError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestCache(t)
	id := asset.ID("broken")
	err := c.Download(context.Background(), id, srv.URL, "broken")
	require.Error(t, err)
	e := c.Entry(id)
	assert.Equal(t, StatusError, e.Status)
	assert.NotEmpty(t, e.Error)
}

func TestDownloadAlreadyCachedIsNoop(t *testing.T) {
	c := newTestCache(t)
	id := asset.ID("done")
	require.NoError(t, c.StoreBlob(id, []byte("x"), "", "x.bin"))
	// URL is never hit: the call must return before any I/O.
	require.NoError(t, c.Download(context.Background(), id, "http://invalid.invalid", "done"))
}

// Two concurrent Download calls for the same id must result in exactly
// one HTTP fetch and one absent→downloading→cached transition; the
// second caller joins the in-flight entry.
func TestDownloadSingleFlight(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte("bytes"))
	}))
	defer srv.Close()

	c := newTestCache(t)
	id := asset.ID("shared")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.Download(context.Background(), id, srv.URL, "shared")
		}(i)
	}
	// Let both goroutines reach the cache before the server responds.
	for c.Entry(id).Status != StatusDownloading {
		time.Sleep(time.Millisecond)
	}
	close(release)
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
	assert.Equal(t, int32(1), hits.Load())
	assert.True(t, c.Has(id))
}

func TestLoadFromStore(t *testing.T) {
	c := newTestCache(t)
	id := asset.ID("persisted")
	require.NoError(t, c.StoreBlob(id, []byte("data"), "", "model.obj"))

	// A second cache over the same filesystem starts with no entry but
	// finds the blob in the persistent store.
	c2, err := New(c.fs, c.dir)
	require.NoError(t, err)
	assert.False(t, c2.Has(id))
	e, err := c2.LoadFromStore(id)
	require.NoError(t, err)
	assert.Equal(t, StatusCached, e.Status)
	assert.True(t, c2.Has(id))
}

func TestLoadFromStoreMissing(t *testing.T) {
	c := newTestCache(t)
	e, err := c.LoadFromStore("ghost")
	require.NoError(t, err)
	assert.Equal(t, StatusAbsent, e.Status)
}
