package confloader

import (
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce absorbs the several events one editor save produces.
const DefaultDebounce = 100 * time.Millisecond

// Watcher calls its callbacks after a configuration file changes.
//
// It watches the file's directory, not the file, so saves that replace the
// file by renaming a temporary one are seen. Events for sibling files are
// dropped.
type Watcher struct {
	fs       *fsnotify.Watcher
	path     string
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	onFire  []func(path string)
	timer   *time.Timer
	stopped bool
	done    chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = logger }
}

// WithDebounce sets how long the file must stay quiet before callbacks
// run. Zero runs them on every event.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// NewWatcher watches path. Call Start to begin delivering changes.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(filepath.Dir(abs)); err != nil {
		_ = fs.Close()
		return nil, err
	}

	w := &Watcher{
		fs:       fs,
		path:     abs,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// OnChange adds a callback. Callbacks run one at a time on the watcher's
// goroutine.
func (w *Watcher) OnChange(fn func(path string)) {
	w.mu.Lock()
	w.onFire = append(w.onFire, fn)
	w.mu.Unlock()
}

// Start delivers changes from a new goroutine until Stop.
func (w *Watcher) Start() {
	fire := make(chan struct{}, 1)
	go w.loop(fire)
	w.logger.Debug("watching configuration file", "path", w.path)
}

func (w *Watcher) loop(fire chan struct{}) {
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if abs, err := filepath.Abs(ev.Name); err != nil || abs != w.path {
				continue
			}
			w.schedule(fire)
		case <-fire:
			w.notify()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("configuration watcher error", "error", err)
		case <-w.done:
			return
		}
	}
}

// schedule queues one notification once the file has been quiet for the
// debounce period.
func (w *Watcher) schedule(fire chan struct{}) {
	signal := func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	}
	if w.debounce <= 0 {
		signal()
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, signal)
}

func (w *Watcher) notify() {
	w.mu.Lock()
	fns := append([]func(string){}, w.onFire...)
	w.mu.Unlock()

	w.logger.Info("configuration file changed", "path", w.path)
	for _, fn := range fns {
		fn(w.path)
	}
}

// Stop ends delivery. Later calls return nil.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	close(w.done)
	if err := w.fs.Close(); err != nil && !errors.Is(err, fsnotify.ErrClosed) {
		return err
	}
	return nil
}
