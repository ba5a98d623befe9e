package registry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a component must be quiet before it is re-registered.
const DefaultDebounce = 500 * time.Millisecond

// WatchEvent reports one registry change made by a Watcher.
type WatchEvent struct {
	Name    string
	Path    string
	Removed bool
	Err     error
}

// Watcher keeps the registry in sync with a skills directory.
// Components created or changed under the directory are re-registered;
// components removed from it are removed from the registry.
type Watcher struct {
	reg      *Registry
	dir      string
	parser   IntentParser
	debounce time.Duration
	logger   *zap.Logger

	watcher *fsnotify.Watcher
	events  chan WatchEvent
	done    chan struct{}
	// inflight counts scheduled and running syncs.
	inflight sync.WaitGroup

	mu      sync.Mutex
	pending map[string]*time.Timer
	// names remembers the registry name of each component path so a removal
	// can be mapped back when the manifest is already gone.
	names map[string]string
}

// NewWatcher creates a watcher for dir. Call Run to start it.
func NewWatcher(reg *Registry, dir string, parser IntentParser, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		reg:      reg,
		dir:      filepath.Clean(dir),
		parser:   parser,
		debounce: debounce,
		logger:   reg.logger.With(zap.String("watch", dir)),
		watcher:  fw,
		events:   make(chan WatchEvent, 32),
		done:     make(chan struct{}),
		pending:  make(map[string]*time.Timer),
		names:    make(map[string]string),
	}

	if err := fw.Add(w.dir); err != nil {
		fw.Close()
		return nil, err
	}
	entries, _ := os.ReadDir(w.dir)
	for _, e := range entries {
		path := filepath.Join(w.dir, e.Name())
		if e.IsDir() && !skipEntry(e.Name()) {
			// Best effort; the top-level watch still sees the directory itself.
			_ = fw.Add(path)
		}
		if meta, err := Describe(path, parser); err == nil {
			w.names[path] = meta.Name
		}
	}
	return w, nil
}

// Events delivers one WatchEvent per registry change. It is closed when Run returns.
func (w *Watcher) Events() <-chan WatchEvent {
	return w.events
}

// Run processes filesystem events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		close(w.done)
		w.mu.Lock()
		for _, t := range w.pending {
			if t.Stop() {
				w.inflight.Done()
			}
		}
		w.pending = map[string]*time.Timer{}
		w.mu.Unlock()
		w.inflight.Wait()
		w.watcher.Close()
		close(w.events)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	root := w.componentRoot(event.Name)
	if root == "" || (skipEntry(filepath.Base(root)) && !isManifest(event.Name)) {
		return
	}
	if isManifest(event.Name) && filepath.Dir(event.Name) == w.dir {
		// <file>.skill.yaml belongs to its sibling component.
		root = w.siblingComponent(event.Name)
		if root == "" {
			return
		}
	}

	if event.Op&fsnotify.Create != 0 && event.Name == root {
		if info, err := os.Stat(root); err == nil && info.IsDir() {
			_ = w.watcher.Add(root)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[root]; ok && t.Stop() {
		w.inflight.Done()
	}
	w.inflight.Add(1)
	w.pending[root] = time.AfterFunc(w.debounce, func() {
		defer w.inflight.Done()
		w.mu.Lock()
		delete(w.pending, root)
		w.mu.Unlock()
		w.sync(ctx, root)
	})
}

// sync registers or removes the component at root.
func (w *Watcher) sync(ctx context.Context, root string) {
	select {
	case <-w.done:
		return
	default:
	}
	if ctx.Err() != nil {
		return
	}

	var ev WatchEvent
	if _, err := os.Stat(root); os.IsNotExist(err) {
		w.mu.Lock()
		name, ok := w.names[root]
		delete(w.names, root)
		w.mu.Unlock()
		if !ok {
			name = componentName(root)
		}
		_, err := w.reg.Remove(name)
		ev = WatchEvent{Name: name, Path: root, Removed: true, Err: err}
		w.logger.Info("component removed", zap.String("name", name), zap.Error(err))
	} else {
		meta, err := Describe(root, w.parser)
		if err == nil {
			_, err = w.reg.Register(meta)
		}
		ev = WatchEvent{Path: root, Err: err}
		if meta != nil {
			ev.Name = meta.Name
			w.mu.Lock()
			w.names[root] = meta.Name
			w.mu.Unlock()
		}
		if err != nil {
			w.logger.Warn("component sync failed", zap.String("path", root), zap.Error(err))
		} else {
			w.logger.Info("component registered", zap.String("name", ev.Name))
		}
	}

	select {
	case w.events <- ev:
	case <-w.done:
	}
}

// componentRoot maps any path under dir to its top-level entry.
func (w *Watcher) componentRoot(path string) string {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	first := strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]
	return filepath.Join(w.dir, first)
}

// siblingComponent finds the file a top-level <name>.skill.yaml describes.
func (w *Watcher) siblingComponent(manifest string) string {
	stem := strings.TrimSuffix(manifest, ManifestSuffix)
	matches, _ := filepath.Glob(stem + ".*")
	for _, m := range matches {
		if m != manifest && !skipEntry(filepath.Base(m)) {
			return m
		}
	}
	return ""
}

func isManifest(path string) bool {
	base := filepath.Base(path)
	return base == ManifestName || strings.HasSuffix(base, ManifestSuffix)
}
