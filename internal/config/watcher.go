package config

import (
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 1500 * time.Millisecond

// Watcher reloads the configuration file when it changes on disk and
// hands the fresh *File to every registered handler. Editors that
// replace the file on save generate bursts of events, so changes are
// debounced before the reload runs.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	handlers map[int]func(*File)
	nextID   int

	fsw  *fsnotify.Watcher
	done chan struct{}
}

// NewWatcher creates a watcher for the configuration file at path.
func NewWatcher(path string, logger *slog.Logger) *Watcher {
	return &Watcher{
		path:     path,
		debounce: defaultDebounce,
		logger:   logger,
		handlers: make(map[int]func(*File)),
	}
}

// SetDebounce overrides the debounce interval. Must be called before
// Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// OnReload registers a handler called with the freshly loaded file
// after every change. The returned function removes the handler.
func (w *Watcher) OnReload(handler func(*File)) func() {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.handlers[id] = handler
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		delete(w.handlers, id)
		w.mu.Unlock()
	}
}

// Start begins watching. It fails if the file cannot be watched, for
// example because it does not exist.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.path); err != nil {
		fsw.Close()
		return err
	}

	w.fsw = fsw
	w.done = make(chan struct{})
	w.logger.Info("Watching config file", "path", w.path, "debounce", w.debounce)

	go w.run()
	return nil
}

// Stop ends the watch. Safe to call when Start never ran.
func (w *Watcher) Stop() error {
	if w.fsw == nil {
		return nil
	}
	err := w.fsw.Close()
	<-w.done
	w.fsw = nil
	return err
}

func (w *Watcher) run() {
	defer close(w.done)

	var pending <-chan time.Time
	var timer *time.Timer

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				if timer != nil {
					timer.Stop()
				}
				return
			}
			// Write covers in-place edits, Create covers save-by-rename.
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.logger.Debug("Config file changed", "op", ev.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			pending = timer.C

		case <-pending:
			pending = nil
			w.reload()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				if timer != nil {
					timer.Stop()
				}
				return
			}
			w.logger.Warn("Config watch error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	f, err := Load(w.path)
	if err != nil {
		w.logger.Warn("Config reload failed", "error", err)
		return
	}

	w.mu.Lock()
	handlers := make([]func(*File), 0, len(w.handlers))
	for _, h := range w.handlers {
		handlers = append(handlers, h)
	}
	w.mu.Unlock()

	w.logger.Info("Config reloaded", "path", w.path)
	for _, h := range handlers {
		h(f)
	}
}
