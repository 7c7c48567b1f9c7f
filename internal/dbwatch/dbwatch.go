// Package dbwatch notices writes to a SQLite database owned by another app.
package dbwatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"flightdeck/internal/logging"
)

// DefaultDebounce batches the bursts of writes SQLite makes per commit.
const DefaultDebounce = 500 * time.Millisecond

// sidecars are the files SQLite writes next to the database.
var sidecars = []string{"", "-wal", "-shm", "-journal"}

// Watcher reports changes to a database file and its sidecars.
type Watcher struct {
	path     string
	dir      string
	names    map[string]struct{}
	debounce time.Duration
	fired    atomic.Int64
}

// New prepares a watcher for the database at path.
func New(path string, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("cannot watch %s: %w", abs, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	names := make(map[string]struct{}, len(sidecars))
	for _, suffix := range sidecars {
		names[filepath.Base(abs)+suffix] = struct{}{}
	}
	return &Watcher{
		path:     abs,
		dir:      filepath.Dir(abs),
		names:    names,
		debounce: debounce,
	}, nil
}

// Fired is the number of times the handler has run.
func (w *Watcher) Fired() int64 { return w.fired.Load() }

// Run calls fn once per debounced burst of changes until ctx is done.
// The directory is watched rather than the file so WAL files that come
// and go are seen.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	logging.Watch("watching %s", w.path)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			logging.WatchDebug("stopped watching %s", w.path)
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if _, mine := w.names[filepath.Base(event.Name)]; !mine {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			logging.WatchDebug("%s %s", event.Op, event.Name)
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.debounce)
			pending = true

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logging.WatchWarn("watch error: %v", err)

		case <-timer.C:
			pending = false
			w.fired.Add(1)
			fn(ctx)
		}
	}
}
