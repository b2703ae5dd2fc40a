package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
)

func TestWatchLoopDebounces(t *testing.T) {
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	dir := t.TempDir()
	input := filepath.Join(dir, "policies.json")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(input, []byte("{}"), 0o644))

	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()
	require.NoError(t, watcher.Add(dir))

	ctx, cancel := context.WithCancel(context.Background())
	runs := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- watchLoop(ctx, watcher, map[string]bool{input: true}, 50*time.Millisecond, func() {
			runs <- struct{}{}
		})
	}()

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o644))
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(input, []byte(`{"sync":{}}`), 0o644))
	}

	select {
	case <-runs:
	case <-time.After(5 * time.Second):
		t.Fatal("no run after input change")
	}
	select {
	case <-runs:
		t.Fatal("burst of writes ran more than once")
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-done)
}
