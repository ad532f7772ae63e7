package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce lets a burst of writes (temp file, rename, chmod) settle into one refresh.
const debounce = 100 * time.Millisecond

// Watch calls onChange whenever the files under dir change, until ctx is done.
// Changes made by other processes sharing a file or loam backend show up this way.
func Watch(ctx context.Context, dir string, logger *slog.Logger, onChange func()) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to prepare %s: %w", dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	logger.Info("Starting Watcher", "path", dir)

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			logger.Debug("Change detected", "event", event.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			pending = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", "err", err)
		case <-pending:
			pending = nil
			onChange()
		}
	}
}
