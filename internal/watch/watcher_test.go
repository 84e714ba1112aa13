package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_Debounce(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "calc_test.gos")
	require.NoError(t, os.WriteFile(script, []byte("package main\n"), 0644))

	w, err := New("_test.gos", nil, time.Second, func(context.Context, []string) {}, nil)
	require.NoError(t, err)
	defer w.watcher.Close()

	clock := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	w.handleEvent(fsnotify.Event{Name: script, Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: filepath.Join(dir, "notes.txt"), Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: filepath.Join(dir, "gone_test.gos"), Op: fsnotify.Remove})
	w.handleEvent(fsnotify.Event{Name: filepath.Join(dir, "deleted_test.gos"), Op: fsnotify.Create})

	assert.Empty(t, w.due())

	clock = clock.Add(500 * time.Millisecond)
	w.handleEvent(fsnotify.Event{Name: script, Op: fsnotify.Write})

	clock = clock.Add(900 * time.Millisecond)
	assert.Empty(t, w.due(), "a new write restarts the debounce interval")

	clock = clock.Add(200 * time.Millisecond)
	assert.Equal(t, []string{script}, w.due())
	assert.Empty(t, w.pending)
}

func TestWatcher_Run(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "vendor"), 0755))

	var mu sync.Mutex
	var seen []string
	changed := make(chan struct{}, 1)

	w, err := New("_test.gos", []string{"vendor"}, 20*time.Millisecond, func(_ context.Context, files []string) {
		mu.Lock()
		seen = append(seen, files...)
		mu.Unlock()
		select {
		case changed <- struct{}{}:
		default:
		}
	}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Add(dir))
	assert.NotContains(t, w.watcher.WatchList(), filepath.Join(dir, "vendor"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	script := filepath.Join(dir, "calc_test.gos")
	require.NoError(t, os.WriteFile(script, []byte("package main\n"), 0644))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, seen, script)
}
