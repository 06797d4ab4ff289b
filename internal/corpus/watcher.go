package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ansa/internal/core/ports/driving"
	"github.com/custodia-labs/ansa/internal/logger"
)

// DefaultDebounce is how long the watcher waits after the last event
// on a path before acting on it. Editors write files in bursts; the
// debounce folds a burst into one indexing pass.
const DefaultDebounce = 500 * time.Millisecond

type changeOp int

const (
	opIndex changeOp = iota
	opRemove
)

// change is one indexing action derived from filesystem events.
type change struct {
	op    changeOp
	path  string
	docID string
}

// Watcher keeps the index current with the corpus directory.
type Watcher struct {
	loader   *Loader
	indexer  driving.IndexService
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// WatcherOption configures the watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides the event debounce window.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher over the loader's corpus root.
func NewWatcher(loader *Loader, indexer driving.IndexService, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		loader:   loader,
		indexer:  indexer,
		debounce: DefaultDebounce,
		pending:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch blocks processing filesystem events until the context is
// cancelled. File writes re-index the file; removals and renames
// delete the document from the index and registry.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addRecursive(fsw, w.loader.Root()); err != nil {
		return fmt.Errorf("watch corpus %s: %w", w.loader.Root(), err)
	}
	logger.Info("Watching %s for corpus changes", w.loader.Root())

	for {
		select {
		case <-ctx.Done():
			w.stopPending()
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.dispatch(ctx, fsw, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// dispatch routes one filesystem event: new directories extend the
// watch, file events become debounced index actions.
func (w *Watcher) dispatch(ctx context.Context, fsw *fsnotify.Watcher, event fsnotify.Event) {
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if isHidden(event.Name) || ignoredDirs[filepath.Base(event.Name)] {
				return
			}
			if err := w.addRecursive(fsw, event.Name); err != nil {
				logger.Warn("Cannot watch new directory %s: %v", event.Name, err)
			}
			return
		}
	}

	ch := w.classify(event)
	if ch == nil {
		return
	}
	w.schedule(ctx, ch)
}

// classify decides what a filesystem event means for the index.
// Returns nil for events needing no action: hidden paths, unsupported
// file types, directories, bare chmods.
func (w *Watcher) classify(event fsnotify.Event) *change {
	if isHidden(event.Name) || !w.loader.supported(event.Name) {
		return nil
	}

	switch {
	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		return &change{op: opRemove, path: event.Name, docID: w.loader.DocID(event.Name)}
	case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return nil
		}
		return &change{op: opIndex, path: event.Name, docID: w.loader.DocID(event.Name)}
	default:
		return nil
	}
}

// schedule queues the change behind the debounce window, superseding
// any action already pending for the same path.
func (w *Watcher) schedule(ctx context.Context, ch *change) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[ch.path]; ok {
		timer.Stop()
	}
	w.pending[ch.path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, ch.path)
		w.mu.Unlock()
		w.apply(ctx, ch)
	})
}

// apply performs the debounced action.
func (w *Watcher) apply(ctx context.Context, ch *change) {
	if ctx.Err() != nil {
		return
	}
	switch ch.op {
	case opRemove:
		if err := w.indexer.Remove(ctx, ch.docID); err != nil {
			logger.Warn("Watcher remove of %s failed: %v", ch.docID, err)
			return
		}
		logger.Info("Removed %s: corpus file deleted", ch.docID)
	case opIndex:
		sub, err := w.loader.LoadFile(ctx, ch.path)
		if err != nil {
			logger.Warn("Watcher cannot load %s: %v", ch.path, err)
			return
		}
		if _, err := w.indexer.Index(ctx, sub); err != nil {
			logger.Warn("Watcher index of %s failed: %v", ch.docID, err)
			return
		}
		logger.Info("Indexed %s: corpus file changed", ch.docID)
	}
}

// stopPending cancels all debounce timers on shutdown.
func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

// addRecursive watches dir and every non-hidden subdirectory.
func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && (strings.HasPrefix(d.Name(), ".") || ignoredDirs[d.Name()]) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}
