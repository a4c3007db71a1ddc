// Package library manages the on-disk prefab collection: a directory
// of .prefab files addressed by sanitized name, watched for external
// edits so the editor's palette stays fresh.
package library

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"scene-editor/internal/prefab"
)

// Library is a prefab directory.
type Library struct {
	dir string
}

// New returns a library rooted at dir, creating it if needed.
func New(dir string) (*Library, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("library: %w", err)
	}
	return &Library{dir: dir}, nil
}

// Dir returns the library's directory.
func (l *Library) Dir() string { return l.dir }

// Save encodes doc and writes it under its derived filename. Returns
// the path written.
func (l *Library) Save(doc *prefab.Document) (string, error) {
	data, err := prefab.Encode(doc)
	if err != nil {
		return "", err
	}
	path := filepath.Join(l.dir, prefab.FileName(doc.Name))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("library: save: %w", err)
	}
	return path, nil
}

// Load reads and decodes the prefab file for name (either a prefab name
// or an exact filename).
func (l *Library) Load(name string) (*prefab.Document, error) {
	file := name
	if !strings.HasSuffix(file, prefab.Extension) {
		file = prefab.FileName(name)
	}
	data, err := os.ReadFile(filepath.Join(l.dir, file))
	if err != nil {
		return nil, fmt.Errorf("library: load: %w", err)
	}
	return prefab.Deserialize(data)
}

// List returns the prefab filenames in the library, sorted.
func (l *Library) List() ([]string, error) {
	des, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("library: %w", err)
	}
	var out []string
	for _, de := range des {
		if de.IsDir() || !strings.HasSuffix(de.Name(), prefab.Extension) {
			continue
		}
		out = append(out, de.Name())
	}
	sort.Strings(out)
	return out, nil
}

// Watcher reports external changes to the library directory. Stop it
// when done.
type Watcher struct {
	fsw  *fsnotify.Watcher
	done chan struct{}
	stop sync.Once
}

// Watch starts watching the library directory and calls onChange with
// the affected filename for every created, written or removed .prefab
// file.
func (l *Library) Watch(onChange func(name string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("library: watch: %w", err)
	}
	if err := fsw.Add(l.dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("library: watch: %w", err)
	}
	w := &Watcher{fsw: fsw, done: make(chan struct{})}
	go func() {
		for {
			select {
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if !strings.HasSuffix(ev.Name, prefab.Extension) {
					continue
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
					onChange(filepath.Base(ev.Name))
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				log.WithField("prefix", "library").Warnf("watch: %v", err)
			case <-w.done:
				return
			}
		}
	}()
	return w, nil
}

// Stop ends the watch. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stop.Do(func() {
		close(w.done)
		_ = w.fsw.Close()
	})
}
