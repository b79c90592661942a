package commands

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

func TestSchemaWatcher_ShouldTrigger(t *testing.T) {
	sw := &schemaWatcher{path: filepath.Join(string(filepath.Separator), "app", "src", "schema.rs")}
	dir := filepath.Dir(sw.path)

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write", fsnotify.Event{Name: sw.path, Op: fsnotify.Write}, true},
		{"create", fsnotify.Event{Name: sw.path, Op: fsnotify.Create}, true},
		{"rename", fsnotify.Event{Name: sw.path, Op: fsnotify.Rename}, true},
		{"chmod", fsnotify.Event{Name: sw.path, Op: fsnotify.Chmod}, false},
		{"remove", fsnotify.Event{Name: sw.path, Op: fsnotify.Remove}, false},
		{"other file", fsnotify.Event{Name: filepath.Join(dir, "lib.rs"), Op: fsnotify.Write}, false},
		{"unclean path", fsnotify.Event{Name: filepath.Join(dir, ".", "schema.rs") + string(filepath.Separator), Op: fsnotify.Write}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sw.shouldTrigger(tt.event))
		})
	}
}

func TestSchemaWatcher_DebouncesWrites(t *testing.T) {
	// Test: a burst of writes results in a single callback
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.rs")
	require.NoError(t, os.WriteFile(path, []byte("// v1\n"), 0o644))

	changes := make(chan struct{}, 10)
	sw, err := newSchemaWatcher(path, 100*time.Millisecond, func() { changes <- struct{}{} })
	require.NoError(t, err)
	defer sw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sw.Start(ctx) }()

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("// v"+string(rune('2'+i))+"\n"), 0o644))
	}

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change callback")
	}

	select {
	case <-changes:
		t.Fatal("expected a single callback for a burst of writes")
	case <-time.After(300 * time.Millisecond):
	}

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.rs"), []byte("x"), 0o644))
	select {
	case <-changes:
		t.Fatal("unexpected callback for unrelated file")
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestNewSchemaWatcher_MissingDirectory(t *testing.T) {
	_, err := newSchemaWatcher(filepath.Join(t.TempDir(), "nope", "schema.rs"), time.Millisecond, func() {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to watch directory")
}
