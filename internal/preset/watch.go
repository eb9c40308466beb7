package preset

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the catalog from path whenever the file is written or
// replaced, until ctx is done. A file that fails to parse leaves the current
// presets in place.
func (c *Catalog) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create preset watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so watch the directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch presets: %w", err)
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			presets, err := readFile(path)
			if err != nil {
				slog.Warn("keeping previous presets", "path", path, "error", err)
				continue
			}
			_ = c.Replace(presets)
			slog.Info("presets reloaded", "path", path, "count", len(presets))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("preset watcher error", "error", err)
		}
	}
}
