package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewatch_SucceedsForValidDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0755))

	fsw, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer fsw.Close()

	w := &watcher{fsw: fsw, root: root}
	assert.NoError(t, w.rewatch())
}

func TestRewatch_ReturnsErrorWhenUnderlyingWatcherClosed(t *testing.T) {
	root := t.TempDir()

	fsw, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	fsw.Close()

	w := &watcher{fsw: fsw, root: root}
	assert.Error(t, w.rewatch(), "Add on a closed fsnotify watcher should fail, driving a retry")
}

func TestRecoverWatches_GivesUpAfterExhaustingBackoff(t *testing.T) {
	// Shrink the schedule so this test doesn't actually wait out 1s+2s+4s.
	orig := watcherRetryBackoff
	watcherRetryBackoff = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}
	defer func() { watcherRetryBackoff = orig }()

	fsw, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	fsw.Close()

	w := &watcher{fsw: fsw, root: t.TempDir(), stopCh: make(chan struct{})}

	done := make(chan struct{})
	go func() {
		w.recoverWatches(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("recoverWatches did not give up after exhausting its retry schedule")
	}
}

func TestRecoverWatches_StopsOnStopChannel(t *testing.T) {
	orig := watcherRetryBackoff
	watcherRetryBackoff = []time.Duration{time.Hour}
	defer func() { watcherRetryBackoff = orig }()

	fsw, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	fsw.Close()

	stopCh := make(chan struct{})
	w := &watcher{fsw: fsw, root: t.TempDir(), stopCh: stopCh}

	done := make(chan struct{})
	go func() {
		w.recoverWatches(context.Background())
		close(done)
	}()

	close(stopCh)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("recoverWatches should return promptly once stopCh closes, not wait out the backoff")
	}
}
