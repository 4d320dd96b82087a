package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch loads the config at path and calls onChange with it, then again whenever the config file
// or the configured input file is written. It runs until ctx is cancelled.
//
// If a reload fails the error is logged and the previous config stays active. Directories are
// watched rather than files so editors that save through a rename are still seen.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	watched := make(map[string]bool)
	watch := func(file string) {
		if file == "" {
			return
		}
		dir := filepath.Dir(file)
		if watched[dir] {
			return
		}
		if err := watcher.Add(dir); err != nil {
			slog.Warn("unable to watch directory", "dir", dir, "err", err)
			return
		}
		watched[dir] = true
	}
	watch(path)
	watch(cfg.Input.Path)

	slog.Info("watching for changes", "config", path, "input", cfg.Input.Path)
	onChange(cfg)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			switch filepath.Clean(event.Name) {
			case filepath.Clean(path):
				next, err := Load(path)
				if err != nil {
					slog.Error("config reload failed, keeping previous config", "path", path, "err", err)
					continue
				}
				slog.Info("config reloaded", "path", path)
				cfg = next
				watch(cfg.Input.Path)
			case filepath.Clean(cfg.Input.Path):
				slog.Info("input changed", "path", cfg.Input.Path)
			default:
				continue
			}
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher error", "err", err)
		}
	}
}
