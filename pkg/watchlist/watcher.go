package watchlist

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kasuboski/umaru/pkg/logger"
)

// DefaultSettle is how long the watcher waits for a burst of edits to finish
const DefaultSettle = 500 * time.Millisecond

// Watcher reports out-of-band edits to the watchlist file. The parent directory
// is watched so editors that replace the file on save are still seen.
type Watcher struct {
	path    string
	settle  time.Duration
	watcher *fsnotify.Watcher
}

// NewWatcher starts watching the directory that holds path
func NewWatcher(path string, settle time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	if settle <= 0 {
		settle = DefaultSettle
	}

	return &Watcher{
		path:    filepath.Clean(path),
		settle:  settle,
		watcher: fsw,
	}, nil
}

// Run calls onChange after the watchlist file changes. Bursts of events within
// the settle window are collapsed into one call. Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context)) error {
	log := logger.FromCtx(ctx).With("path", w.path)
	defer w.watcher.Close()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				log.Debugw("watchlist changed", "op", event.Op.String())
				pending = time.After(w.settle)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnw("watchlist watcher error", "error", err)
		case <-pending:
			pending = nil
			onChange(ctx)
		}
	}
}
