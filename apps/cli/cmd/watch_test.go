package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatch(t *testing.T, files []string) (<-chan string, context.CancelFunc, <-chan error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan string, 8)
	done := make(chan error, 1)
	go func() {
		done <- watchFiles(ctx, files, func(name string) { changes <- name })
	}()
	// Give the watcher time to register the directories.
	time.Sleep(100 * time.Millisecond)
	return changes, cancel, done
}

func TestWatchFiles_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "request.yaml")
	require.NoError(t, os.WriteFile(file, []byte("url: a"), 0o644))

	changes, cancel, done := startWatch(t, []string{file})

	for _, body := range []string{"url: b", "url: c", "url: d"} {
		require.NoError(t, os.WriteFile(file, []byte(body), 0o644))
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case name := <-changes:
		abs, _ := filepath.Abs(name)
		assert.Equal(t, file, abs)
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}

	select {
	case name := <-changes:
		t.Fatalf("unexpected second change for %s", name)
	case <-time.After(2 * WatchDebounceDelay):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watchFiles did not return after cancel")
	}
}

func TestWatchFiles_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "request.yaml")
	sibling := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(file, []byte("url: a"), 0o644))

	changes, cancel, done := startWatch(t, []string{file})
	defer func() {
		cancel()
		<-done
	}()

	require.NoError(t, os.WriteFile(sibling, []byte("scratch"), 0o644))

	select {
	case name := <-changes:
		t.Fatalf("unexpected change for %s", name)
	case <-time.After(3 * WatchDebounceDelay):
	}
}
