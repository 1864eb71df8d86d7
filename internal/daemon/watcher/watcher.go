// Package watcher reports edits to the daemon's settings file.
package watcher

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DebounceDelay is how long a file must stay quiet before a change is
// reported.
const DebounceDelay = 100 * time.Millisecond

// Event reports that a watched file was written, created or replaced.
type Event struct {
	Path string
}

// Watcher watches individual files by watching their parent directories.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	eventsChan chan Event
	done       chan struct{}
	stopOnce   sync.Once
	logger     *zap.Logger

	mu    sync.RWMutex
	files map[string]bool // cleaned absolute path -> watched

	debounce   map[string]*time.Timer
	debounceMu sync.Mutex
}

// New creates a new file system watcher.
func New(logger *zap.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Watcher{
		fsWatcher:  fsWatcher,
		eventsChan: make(chan Event, 16),
		done:       make(chan struct{}),
		logger:     logger,
		files:      make(map[string]bool),
		debounce:   make(map[string]*time.Timer),
	}, nil
}

// Events returns the channel for receiving events.
func (w *Watcher) Events() <-chan Event {
	return w.eventsChan
}

// WatchFile starts reporting changes to path. The file itself need not
// exist yet, but its directory must.
func (w *Watcher) WatchFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	abs = filepath.Clean(abs)

	if err := w.fsWatcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	w.mu.Lock()
	w.files[abs] = true
	w.mu.Unlock()

	w.logger.Debug("Watching file", zap.String("path", abs))
	return nil
}

// Start starts processing file system events.
func (w *Watcher) Start() {
	go w.processEvents()
}

// Stop stops the watcher. Pending debounced events are dropped.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fsWatcher.Close()

		w.debounceMu.Lock()
		for path, timer := range w.debounce {
			timer.Stop()
			delete(w.debounce, path)
		}
		w.debounceMu.Unlock()
	})
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Atomic saves (write tmp, rename over target) arrive as Create or
	// Rename on the target.
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	path := filepath.Clean(event.Name)
	w.mu.RLock()
	watched := w.files[path]
	w.mu.RUnlock()
	if !watched {
		return
	}

	w.debounceEvent(path, func() {
		select {
		case w.eventsChan <- Event{Path: path}:
		case <-w.done:
		}
	})
}

// debounceEvent debounces events for the same path.
func (w *Watcher) debounceEvent(path string, fn func()) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, ok := w.debounce[path]; ok {
		timer.Stop()
	}

	w.debounce[path] = time.AfterFunc(DebounceDelay, func() {
		w.debounceMu.Lock()
		delete(w.debounce, path)
		w.debounceMu.Unlock()
		fn()
	})
}
