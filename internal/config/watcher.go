package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-reads the config file when it changes on disk.
// Edits are debounced because editors tend to fire several events per save.
type Watcher struct {
	path     string
	debounce time.Duration
	onReload func(*Config)
}

func NewWatcher(path string, onReload func(*Config)) *Watcher {
	return &Watcher{
		path:     path,
		debounce: 200 * time.Millisecond,
		onReload: onReload,
	}
}

// Watch blocks until ctx is cancelled. It watches the config file's parent
// directory so the watch survives rename-based atomic writes.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	var timer *time.Timer
	reload := func() {
		if err := LoadConfig(w.path); err != nil {
			configLogger.Error().Err(err).Str("path", w.path).Msg("Config reload failed, keeping previous config")
			return
		}
		configLogger.Info().Str("path", w.path).Msg("Config reloaded")
		if w.onReload != nil {
			w.onReload(AppConfig)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			configLogger.Error().Err(err).Msg("Config watcher error")
		}
	}
}
