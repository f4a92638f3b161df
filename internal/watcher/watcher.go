// Package watcher keeps documents in sync with files dropped into watched
// folders, using fsnotify with per-file debouncing.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Handler reacts to settled file changes under a watched root.
type Handler interface {
	FileChanged(ctx context.Context, path string) error
	FileRemoved(ctx context.Context, path string) error
}

// Options configures a Watcher.
type Options struct {
	Roots []string
	// Extensions filters files by extension; empty accepts every file.
	Extensions []string
	Recursive  bool
	Debounce   time.Duration
	Logger     *zap.Logger
}

// Watcher watches root directories and forwards file events to a Handler.
type Watcher struct {
	opts    Options
	handler Handler
	logger  *zap.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	pending map[string]*time.Timer
	running sync.WaitGroup
	ready   chan struct{}
}

// New creates a watcher. Roots are made absolute; missing roots are created
// when Run starts.
func New(handler Handler, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	roots := make([]string, 0, len(opts.Roots))
	for _, r := range opts.Roots {
		if abs, err := filepath.Abs(r); err == nil {
			r = abs
		}
		roots = append(roots, filepath.Clean(r))
	}
	opts.Roots = roots
	return &Watcher{
		opts:    opts,
		handler: handler,
		logger:  logger,
		pending: make(map[string]*time.Timer),
		ready:   make(chan struct{}),
	}
}

// Roots returns the watched root directories.
func (w *Watcher) Roots() []string {
	return append([]string(nil), w.opts.Roots...)
}

// Ready is closed once every root is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled. Files already present are synced first.
// Handler calls still in flight finish before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.fsw = fsw
	w.mu.Unlock()
	defer w.shutdown()

	for _, root := range w.opts.Roots {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return err
		}
		if err := w.addTree(root); err != nil {
			return err
		}
	}
	w.logger.Info("watching folders",
		zap.Strings("roots", w.opts.Roots),
		zap.Strings("extensions", w.opts.Extensions),
		zap.Bool("recursive", w.opts.Recursive))
	close(w.ready)

	for _, root := range w.opts.Roots {
		w.syncDirectory(ctx, root)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) shutdown() {
	w.mu.Lock()
	for path, t := range w.pending {
		if t.Stop() {
			w.running.Done()
		}
		delete(w.pending, path)
	}
	fsw := w.fsw
	w.fsw = nil
	w.mu.Unlock()
	if fsw != nil {
		_ = fsw.Close()
	}
	w.running.Wait()
}

func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if !w.underRoot(path) {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))

	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			if ev.Has(fsnotify.Create) && w.opts.Recursive {
				if err := w.addTree(path); err != nil {
					w.logger.Warn("watcher failed to add directory", zap.String("path", path), zap.Error(err))
				}
				w.syncDirectory(ctx, path)
			}
			return
		}
		if w.accepts(path) {
			w.schedule(ctx, path)
		}
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		w.cancel(path)
		if w.accepts(path) {
			if err := w.handler.FileRemoved(ctx, path); err != nil {
				w.logger.Warn("watcher remove failed", zap.String("path", path), zap.Error(err))
			}
		}
	}
}

// addTree watches dir, and every directory below it when recursive.
func (w *Watcher) addTree(dir string) error {
	w.mu.Lock()
	fsw := w.fsw
	w.mu.Unlock()
	if fsw == nil {
		return errors.New("watcher is not running")
	}
	if !w.opts.Recursive {
		return fsw.Add(dir)
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}

// syncDirectory reports every accepted file under dir as changed.
func (w *Watcher) syncDirectory(ctx context.Context, dir string) {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != dir && !w.opts.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if w.accepts(path) {
			w.changed(ctx, path)
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		w.logger.Warn("watcher sync failed", zap.String("dir", dir), zap.Error(err))
	}
}

func (w *Watcher) changed(ctx context.Context, path string) {
	if err := w.handler.FileChanged(ctx, path); err != nil {
		w.logger.Warn("watcher import failed", zap.String("path", path), zap.Error(err))
	}
}

// schedule runs FileChanged once path has been quiet for the debounce window.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw == nil {
		return
	}
	if t, ok := w.pending[path]; ok && t.Stop() {
		w.running.Done()
	}
	w.running.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.opts.Debounce, func() {
		defer w.running.Done()
		w.mu.Lock()
		if w.pending[path] == t {
			delete(w.pending, path)
		}
		w.mu.Unlock()
		w.changed(ctx, path)
	})
	w.pending[path] = t
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		if t.Stop() {
			w.running.Done()
		}
		delete(w.pending, path)
	}
}

func (w *Watcher) underRoot(path string) bool {
	for _, root := range w.opts.Roots {
		if root == path || inDir(root, path) {
			return true
		}
	}
	return false
}

func inDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (w *Watcher) accepts(path string) bool {
	base := filepath.Base(path)
	// Editor swap files and dotfiles.
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	return matchExtension(path, w.opts.Extensions)
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}
