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

	"github.com/panbanda/bugsight/pkg/config"
)

func newWatcher(t *testing.T, root string, debounce time.Duration) *Watcher {
	t.Helper()
	w, err := NewWatcher(root, config.DefaultConfig(), debounce, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestNewWatcher(t *testing.T) {
	tests := []struct {
		name     string
		debounce time.Duration
		want     time.Duration
	}{
		{"default debounce", 0, DefaultDebounce},
		{"negative debounce defaults", -time.Second, DefaultDebounce},
		{"custom debounce", time.Second, time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWatcher(t, t.TempDir(), tt.debounce)
			assert.Equal(t, tt.want, w.debounce)
			assert.True(t, filepath.IsAbs(w.Root()))
			assert.NotNil(t, w.pending)
		})
	}
}

func TestHandleEventFiltersFiles(t *testing.T) {
	root := t.TempDir()
	w := newWatcher(t, root, time.Second)
	now := time.Now()

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"python write", fsnotify.Event{Name: filepath.Join(root, "app", "models.py"), Op: fsnotify.Write}, true},
		{"python create", fsnotify.Event{Name: filepath.Join(root, "stubs.pyi"), Op: fsnotify.Create}, true},
		{"remove ignored", fsnotify.Event{Name: filepath.Join(root, "gone.py"), Op: fsnotify.Remove}, false},
		{"chmod ignored", fsnotify.Event{Name: filepath.Join(root, "mode.py"), Op: fsnotify.Chmod}, false},
		{"not python", fsnotify.Event{Name: filepath.Join(root, "README.md"), Op: fsnotify.Write}, false},
		{"excluded dir", fsnotify.Event{Name: filepath.Join(root, ".venv", "lib.py"), Op: fsnotify.Write}, false},
		{"generated", fsnotify.Event{Name: filepath.Join(root, "api_pb2.py"), Op: fsnotify.Write}, false},
		{"test file", fsnotify.Event{Name: filepath.Join(root, "tests", "test_models.py"), Op: fsnotify.Write}, false},
		{"outside root", fsnotify.Event{Name: filepath.Join(filepath.Dir(root), "other.py"), Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w.handleEvent(tt.event, now)
			_, ok := w.pending[tt.event.Name]
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestTakeReadyDebounces(t *testing.T) {
	root := t.TempDir()
	w := newWatcher(t, root, time.Second)
	start := time.Now()

	a := filepath.Join(root, "a.py")
	b := filepath.Join(root, "b.py")
	w.handleEvent(fsnotify.Event{Name: b, Op: fsnotify.Write}, start)
	w.handleEvent(fsnotify.Event{Name: a, Op: fsnotify.Write}, start)

	assert.Empty(t, w.takeReady(start.Add(500*time.Millisecond)))

	// a keeps changing, b settles
	w.handleEvent(fsnotify.Event{Name: a, Op: fsnotify.Write}, start.Add(800*time.Millisecond))
	assert.Equal(t, []string{b}, w.takeReady(start.Add(time.Second)))
	assert.Equal(t, []string{a}, w.takeReady(start.Add(2*time.Second)))
	assert.Empty(t, w.pending)
}

func TestAddTreeSkipsExcludedDirs(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"app/models", ".venv/lib", "__pycache__"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}
	w := newWatcher(t, root, time.Second)
	require.NoError(t, w.addTree(w.Root()))

	watched := w.WatchedDirs()
	assert.Contains(t, watched, w.Root())
	assert.Contains(t, watched, filepath.Join(w.Root(), "app", "models"))
	assert.NotContains(t, watched, filepath.Join(w.Root(), ".venv"))
	assert.NotContains(t, watched, filepath.Join(w.Root(), "__pycache__"))
}

func TestRunReportsChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "app"), 0o755))
	w := newWatcher(t, root, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu   sync.Mutex
		seen []string
	)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, files []string) {
			mu.Lock()
			seen = append(seen, files...)
			mu.Unlock()
		})
	}()

	target := filepath.Join(w.Root(), "app", "models.py")
	assert.Eventually(t, func() bool {
		// rewrite until the watch is in place
		_ = os.WriteFile(target, []byte("class A:\n    pass\n"), 0o644)
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0
	}, 5*time.Second, 100*time.Millisecond)

	mu.Lock()
	assert.Equal(t, target, seen[0])
	mu.Unlock()

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
