package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/1kuna/kindle-lock/pkg/logger"
)

// watchDebounce coalesces rapid write events from editors that save in
// multiple steps (write + rename).
const watchDebounce = 250 * time.Millisecond

// Watch monitors the config file at path and invokes onChange with the
// freshly loaded configuration whenever it changes. Reload failures are
// logged and the previous configuration stays in effect.
//
// Watch blocks until ctx is cancelled. The watch is attached to the
// file's directory so editors that replace the file (rename-over) are
// still observed.
func Watch(ctx context.Context, path string, log logger.Logger, onChange func(*Config)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := fsw.Close(); closeErr != nil {
			log.Warn("failed to close config watcher", "error", closeErr)
		}
	}()

	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		return err
	}

	log.Info("watching config file", "path", path)

	var debounce *time.Timer
	reload := func() {
		cfg, loadErr := NewLoader(path).Load()
		if loadErr != nil {
			log.Warn("config reload failed, keeping previous settings",
				"path", path, "error", loadErr)
			return
		}
		log.Info("config reloaded",
			"daily_percentage", cfg.Goal.DailyPercentage,
			"day_reset_hour", cfg.Goal.DayResetHour)
		onChange(cfg)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, reload)

		case watchErr, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watcher error", "error", watchErr)
		}
	}
}
