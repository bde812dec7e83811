package team

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vinayprograms/agentkit/logging"
)

// debounceWindow coalesces the write bursts editors produce on save.
const debounceWindow = 250 * time.Millisecond

// Watch reloads the team file whenever it changes and hands the parsed
// result to onReload. Parse errors keep the previous team active. Watch
// blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, onReload func(*Team)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	logger := logging.New().WithComponent("team")
	var timer *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceWindow, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case <-reload:
			t, err := Load(path)
			if err != nil {
				logger.Warn("team reload failed, keeping previous definition", map[string]interface{}{
					"path":  path,
					"error": err.Error(),
				})
				continue
			}
			logger.Info("team definition reloaded", map[string]interface{}{
				"path":    path,
				"workers": len(t.Workers),
			})
			onReload(t)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("team watcher error", map[string]interface{}{"error": err.Error()})
		}
	}
}
