package templates

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/singleflight"

	"github.com/AaronLay10/OrbFi/internal/blocks"
	"github.com/AaronLay10/OrbFi/internal/events"
)

// Watcher layers an on-disk override directory over the built-in catalog
// and reloads it when the directory changes.
type Watcher struct {
	base *Library
	dir  string
	reg  *blocks.Registry

	current atomic.Pointer[Library]
	group   singleflight.Group
}

// NewWatcher loads the override directory once. A missing manifest means
// no overrides; an invalid one is reported and the base catalog is used.
func NewWatcher(base *Library, dir string, reg *blocks.Registry) *Watcher {
	w := &Watcher{base: base, dir: dir, reg: reg}
	w.current.Store(base)
	if err := w.Reload(); err != nil {
		log.Printf("templates: override load failed: %v", err)
	}
	return w
}

// Current returns the catalog in effect.
func (w *Watcher) Current() *Library {
	return w.current.Load()
}

// Reload re-reads the override directory. Concurrent calls share one load.
// On failure the previous catalog stays in effect.
func (w *Watcher) Reload() error {
	_, err, _ := w.group.Do("reload", func() (interface{}, error) {
		over, err := LoadDir(w.dir)
		if errors.Is(err, fs.ErrNotExist) {
			w.current.Store(w.base)
			return nil, nil
		}
		if err == nil {
			if errs := over.Validate(w.reg); len(errs) > 0 {
				err = errors.Join(errs...)
			}
		}
		if err != nil {
			events.Emit("error", "template.error", "template override rejected", map[string]interface{}{
				"dir":   w.dir,
				"error": err.Error(),
			})
			return nil, err
		}

		merged := w.base.Merge(over)
		w.current.Store(merged)
		events.Emit("info", "template.reloaded", "", map[string]interface{}{
			"dir":       w.dir,
			"overrides": over.Len(),
			"templates": merged.Len(),
		})
		return nil, nil
	})
	return err
}

// Run watches the override directory until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				if err := w.Reload(); err != nil {
					log.Printf("templates: reload after %s %s: %v", event.Op, event.Name, err)
				}
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("templates: fsnotify error=%v", err)
		}
	}
}
