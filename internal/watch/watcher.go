// Package watch monitors the source directory tree and triggers a sync
// after changes settle.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ardietz/confsync/internal/core/walker"
	"github.com/ardietz/confsync/internal/logger"
)

// DefaultDebounce is the quiet period after the last event before a
// sync is triggered
const DefaultDebounce = 2 * time.Second

// Watcher watches a directory tree recursively and emits a trigger once
// changes have settled. Bulk operations (saving many documents, rsync
// into the tree) collapse into a single trigger.
type Watcher struct {
	root     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	triggers chan struct{}
	done     chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
	log      logger.Logger
}

// NewWatcher creates a watcher for the tree rooted at root.
// The watcher must be started with Start() before it emits triggers.
func NewWatcher(root string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		root:     root,
		debounce: debounce,
		watcher:  fsw,
		triggers: make(chan struct{}, 1),
		done:     make(chan struct{}),
		log:      logger.With("component", "watch"),
	}, nil
}

// Start begins watching. Every directory under the root is registered;
// fsnotify does not watch recursively on its own.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}

	if err := w.addRecursive(w.root); err != nil {
		return err
	}

	w.running = true
	w.wg.Add(1)
	go w.processEvents()

	return nil
}

// Stop stops the watcher and blocks until its event loop has exited
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.done)

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	w.wg.Wait()
	close(w.triggers)

	return nil
}

// Triggers returns the channel that fires once per settled batch of
// changes. The channel is closed when the watcher is stopped.
func (w *Watcher) Triggers() <-chan struct{} {
	return w.triggers
}

// IsRunning returns true if the watcher is currently running
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Run triggers onChange after each settled batch until ctx is canceled.
// It runs onChange on the caller's goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context)) error {
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-w.triggers:
			if !ok {
				return nil
			}
			onChange(ctx)
		}
	}
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subdirectories are tolerated, like in a sync run
			if path != dir {
				w.log.Warn("cannot watch directory", "path", path, "error", err)
				return fs.SkipDir
			}
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// processEvents debounces raw fsnotify events into triggers
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			// New directories must be registered before their contents
			// produce events
			if event.Has(fsnotify.Create) {
				if err := w.addRecursive(event.Name); err != nil {
					w.log.Debug("could not extend watch", "path", event.Name, "error", err)
				}
			}
			w.log.Debug("change detected", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timerC:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			select {
			case w.triggers <- struct{}{}:
			default:
				// A trigger is already pending
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

// relevant filters events down to documents and directories
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	ext := filepath.Ext(event.Name)
	if ext == "" {
		// Probably a directory; fsnotify events carry no type info
		return true
	}
	return strings.EqualFold(ext, walker.DocumentExtension)
}
