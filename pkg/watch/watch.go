// Package watch rebuilds a bundle whenever the files it is made from change.
package watch

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"codebundle/pkg/bundle"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultDebounce batches bursts of filesystem events into one rebuild.
const DefaultDebounce = 300 * time.Millisecond

// Bundler is the part of *bundle.Builder the watcher drives.
type Bundler interface {
	Build() (*bundle.Summary, error)
	Dirs() ([]string, error)
	Affects(path string) bool
}

// Watcher runs an initial build, then rebuilds after relevant changes. Builds
// never overlap.
type Watcher struct {
	bundler  Bundler
	logger   *zap.Logger
	debounce time.Duration

	// OnBuild, when set, is called after every build attempt.
	OnBuild func(*bundle.Summary, error)

	mu      sync.Mutex
	watched map[string]struct{}
}

// New creates a Watcher. A non-positive debounce uses DefaultDebounce.
func New(b Bundler, debounce time.Duration, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		bundler:  b,
		logger:   logger,
		debounce: debounce,
		watched:  make(map[string]struct{}),
	}
}

// Run blocks until ctx is cancelled. It returns an error only when watching
// cannot start or the underlying watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := w.sync(fsw); err != nil {
		return err
	}
	w.rebuild()

	trigger := make(chan struct{}, 1)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.pump(gctx, fsw, trigger) })
	g.Go(func() error { return w.loop(gctx, trigger) })

	err = g.Wait()
	if ctx.Err() != nil {
		w.logger.Info("Watcher stopped")
		return nil
	}
	return err
}

// sync adds every directory the bundle reads from to fsw.
func (w *Watcher) sync(fsw *fsnotify.Watcher) error {
	dirs, err := w.bundler.Dirs()
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if _, ok := w.watched[dir]; ok {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			w.logger.Warn("Failed to watch directory", zap.String("directory", dir), zap.Error(err))
			continue
		}
		w.watched[dir] = struct{}{}
	}
	w.logger.Debug("Watching directories", zap.Int("count", len(w.watched)))
	return nil
}

func (w *Watcher) pump(ctx context.Context, fsw *fsnotify.Watcher, trigger chan<- struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return errors.New("watcher event channel closed")
			}
			if event.Op == fsnotify.Chmod || !w.bundler.Affects(event.Name) {
				continue
			}
			w.logger.Debug("Change detected", zap.String("path", event.Name), zap.String("op", event.Op.String()))

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.sync(fsw); err != nil {
						w.logger.Warn("Failed to refresh watched directories", zap.Error(err))
					}
				}
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				delete(w.watched, event.Name)
			}

			select {
			case trigger <- struct{}{}:
			default:
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return errors.New("watcher error channel closed")
			}
			w.logger.Warn("Watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) loop(ctx context.Context, trigger <-chan struct{}) error {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-trigger:
			timer.Reset(w.debounce)
		case <-timer.C:
			w.rebuild()
		}
	}
}

func (w *Watcher) rebuild() {
	w.mu.Lock()
	defer w.mu.Unlock()

	summary, err := w.bundler.Build()
	if err != nil {
		w.logger.Error("Rebuild failed", zap.Error(err))
	} else {
		w.logger.Info("Rebuilt bundle",
			zap.Int("totalFiles", summary.Files),
			zap.Int("skipped", len(summary.Skipped)))
	}
	if w.OnBuild != nil {
		w.OnBuild(summary, err)
	}
}
