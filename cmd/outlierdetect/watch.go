package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"

	"github.com/aouyang1/go-outlier/internal/config"
)

var ErrNoConfigPath = errors.New("watch requires a config file")

func runWatch(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	refit := fs.Bool("refit", false, "refit and overwrite the saved model on every change")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if e.configPath == "" {
		return ErrNoConfigPath
	}

	return config.Watch(ctx, e.configPath, func(cfg *config.Config) {
		if *refit && cfg.ModelDir != "" {
			td, err := readInput(cfg.Input)
			if err != nil {
				slog.Error("unable to read input for refit", "err", err)
				return
			}
			if _, err := fitDetector(cfg, td); err != nil {
				slog.Error("refit failed", "err", err)
				return
			}
		}
		if _, err := detect(ctx, cfg, e.stdout); err != nil {
			slog.Error("detect failed", "err", err)
		}
	})
}
