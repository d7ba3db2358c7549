package plugincore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// maxWatchAttempts bounds how often Watch retries a plugin file that keeps
// failing to load.
const maxWatchAttempts = 3

// watchedFile tracks one plugin path seen by Watch.
type watchedFile struct {
	loaded   bool
	failures int
	size     int64
	modTime  time.Time
}

// Watch loads every plugin already in dir and then keeps loading plugin files
// as they are created or rewritten, until ctx is cancelled. A path that loaded
// successfully is not loaded again; plugins are never unloaded. A path that
// failed is retried only after its size or modification time changes, and at
// most maxWatchAttempts times.
func (l *Loader[F]) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	var (
		mu    sync.Mutex
		files = make(map[string]*watchedFile)
	)
	loadOnce := func(path string) {
		mu.Lock()
		defer mu.Unlock()

		st, err := os.Stat(path)
		if err != nil {
			return
		}

		f, ok := files[path]
		if !ok {
			f = &watchedFile{}
			files[path] = f
		}
		if f.loaded || f.failures >= maxWatchAttempts {
			return
		}
		if f.failures > 0 && st.Size() == f.size && st.ModTime().Equal(f.modTime) {
			return
		}

		if _, err := l.Load(ctx, path); err == nil {
			f.loaded = true

			return
		}
		f.failures++
		f.size, f.modTime = st.Size(), st.ModTime()
		if f.failures == maxWatchAttempts {
			l.diag.Logf(LevelWarn, "Giving up on plugin %s after %d failed loads", path, f.failures)
		}
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", dir, err)
	}
	for _, p := range paths {
		if l.pluginFile(p) {
			loadOnce(p)
		}
	}
	l.diag.Logf(LevelInfo, "Watching %s for plugins", dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 && l.pluginFile(event.Name) {
				loadOnce(event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.diag.Logf(LevelWarn, "Plugin watcher error: %v", err)
		}
	}
}
