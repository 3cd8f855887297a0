package queue

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch calls fn with the current entries, then again every time the queue
// file changes, until ctx is done. The directory is watched rather than the
// file because saves replace the file by rename.
func (q *Queue) Watch(ctx context.Context, fn func([]Entry)) error {
	dir := filepath.Dir(q.path)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec
		return fmt.Errorf("unable to create state directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to create watcher: %w", err)
	}
	defer watcher.Close() //nolint:errcheck

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("unable to watch %s: %w", dir, err)
	}
	q.logger.Debug("watching queue", "dir", dir)

	fn(q.List())
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != FileName {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			fn(q.List())
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			q.logger.Debug("queue watcher error", "dir", dir, "error", err)
		}
	}
}
