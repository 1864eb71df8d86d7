package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWatcher(t *testing.T) *Watcher {
	t.Helper()
	w, err := New(nil)
	require.NoError(t, err)
	w.Start()
	t.Cleanup(w.Stop)
	return w
}

func waitEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev := <-w.Events():
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestWatchFile_ReportsWrites(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(target, []byte("version: 1\n"), 0644))

	w := newWatcher(t)
	require.NoError(t, w.WatchFile(target))

	require.NoError(t, os.WriteFile(target, []byte("version: 2\n"), 0644))

	ev := waitEvent(t, w)
	abs, err := filepath.Abs(target)
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(abs), ev.Path)
}

func TestWatchFile_ReportsAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "settings.yaml")

	w := newWatcher(t)
	require.NoError(t, w.WatchFile(target))

	tmp := filepath.Join(dir, "settings.yaml.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("version: 1\n"), 0644))
	require.NoError(t, os.Rename(tmp, target))

	ev := waitEvent(t, w)
	assert.Equal(t, "settings.yaml", filepath.Base(ev.Path))
}

func TestWatchFile_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	w := newWatcher(t)
	require.NoError(t, w.WatchFile(filepath.Join(dir, "settings.yaml")))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "daemon.yaml"), []byte("pid: 1\n"), 0644))

	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event for %s", ev.Path)
	case <-time.After(3 * DebounceDelay):
	}
}

func TestWatchFile_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "settings.yaml")
	w := newWatcher(t)
	require.NoError(t, w.WatchFile(target))

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(target, []byte("x"), 0644))
	}

	waitEvent(t, w)
	select {
	case <-w.Events():
		t.Fatal("burst produced more than one event")
	case <-time.After(3 * DebounceDelay):
	}
}

func TestWatchFile_MissingDirectory(t *testing.T) {
	w := newWatcher(t)
	assert.Error(t, w.WatchFile(filepath.Join(t.TempDir(), "missing", "settings.yaml")))
}

func TestStop_Idempotent(t *testing.T) {
	w, err := New(nil)
	require.NoError(t, err)
	w.Start()
	w.Stop()
	w.Stop()
}
