package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_FiresOnStartAndOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nodes: []\n"), 0644))

	calls := make(chan string, 10)
	w, err := New(path, func(ctx context.Context, p string) error {
		calls <- p
		return errors.New("handler errors are only logged")
	}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case p := <-calls:
		assert.Equal(t, w.path, p)
	case <-time.After(2 * time.Second):
		t.Fatal("expected initial call")
	}

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644))
	// Give the ignored event time to arrive before the real one.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("nodes: [{id: a}]\n"), 0644))

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("expected call after write")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "nope", "graph.yaml"), func(context.Context, string) error { return nil })
	require.NoError(t, err)
	assert.Error(t, w.Run(context.Background()))
}
