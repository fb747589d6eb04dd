package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"grok-cli/internal/logging"
)

const settleInterval = defaultSettleInterval

// watcherRetryBackoff is the Transient-error retry schedule spec §7
// prescribes for watcher hiccups: three attempts at 1s, 2s, 4s.
var watcherRetryBackoff = []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}

// watcher is a debounced fsnotify watcher over an Engine's root directory,
// grounded on the teacher's internal/core/mangle_watcher.go: a debounce
// map of pending paths plus a periodic ticker that flushes settled events.
type watcher struct {
	mu          sync.Mutex
	fsw         *fsnotify.Watcher
	engine      *Engine
	root        string
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

func newWatcher(e *Engine, root string, debounce time.Duration) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &watcher{
		fsw:         fsw,
		engine:      e,
		root:        root,
		debounceMap: make(map[string]time.Time),
		debounceDur: debounce,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}

	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if err := fsw.Add(path); err != nil {
				logging.EngineWarn("watcher: failed to watch %s: %v", path, err)
			}
		}
		return nil
	})

	return w, nil
}

func (w *watcher) start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.run(ctx)
}

func (w *watcher) stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	w.fsw.Close()
}

func (w *watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(settleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.handleWatchError(ctx, err)
		case <-ticker.C:
			w.processSettled()
		}
	}
}

// handleEvent records a path as pending, debounced, for later processing.
// It does not classify create/write/remove here: Engine.handleWatchEvent
// re-stats the path when the debounce window elapses to decide.
func (w *watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Chmod != 0 && event.Op == fsnotify.Chmod {
		return
	}
	if !isWatchedFile(event.Name) {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.fsw.Add(event.Name)
			return
		}
	}

	w.mu.Lock()
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *watcher) processSettled() {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, t := range w.debounceMap {
		if now.Sub(t) >= w.debounceDur {
			settled = append(settled, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	for _, abs := range settled {
		rel, err := filepath.Rel(w.root, abs)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		w.engine.handleWatchEvent(rel, abs)
	}
}

// handleWatchError logs a hiccup reported on the fsnotify Errors channel and
// kicks off a bounded recovery attempt in the background, so the main event
// loop above keeps draining Events/ticker cases while recovery backs off.
func (w *watcher) handleWatchError(ctx context.Context, err error) {
	logging.EngineWarn("watcher error channel reported an error: %v", err)
	go w.recoverWatches(ctx)
}

// recoverWatches re-adds root's directories to the underlying fsnotify
// watcher after a hiccup, retrying on failure with spec §7's exponential
// backoff (1s, 2s, 4s) up to 3 attempts before giving up. fsnotify's own
// event loop keeps running throughout; a failed recovery only means the
// watch list may be stale until the next hiccup or restart.
func (w *watcher) recoverWatches(ctx context.Context) {
	for attempt := 0; ; attempt++ {
		if w.rewatch() == nil {
			return
		}
		if attempt >= len(watcherRetryBackoff) {
			logging.EngineWarn("watcher: giving up on re-establishing watches after %d attempt(s)", attempt+1)
			return
		}
		wait := watcherRetryBackoff[attempt]
		logging.EngineWarn("watcher: retrying re-watch in %s (attempt %d/%d)", wait, attempt+1, len(watcherRetryBackoff))
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-time.After(wait):
		}
	}
}

// rewatch walks root and re-adds every directory to the fsnotify watcher,
// reporting an error if any Add call failed so recoverWatches knows to retry.
func (w *watcher) rewatch() error {
	var failed bool
	_ = filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				failed = true
			}
		}
		return nil
	})
	if failed {
		return errors.New("watcher: failed to re-add one or more directories")
	}
	return nil
}

func isWatchedFile(path string) bool {
	lang := detectLanguage(path)
	return lang != "unknown"
}
