package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	outlier "github.com/aouyang1/go-outlier"
	"github.com/aouyang1/go-outlier/internal/config"
	"github.com/aouyang1/go-outlier/timedataset"
)

var ErrNoInput = errors.New("no input path specified")

// readInput loads the configured csv series and resamples it when a width is set
func readInput(cfg config.InputConfig) (*timedataset.TimeDataset, error) {
	if cfg.Path == "" {
		return nil, ErrNoInput
	}
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open input, %w", err)
	}
	defer f.Close()

	td, err := timedataset.ReadCSV(f, cfg.CSV)
	if err != nil {
		return nil, fmt.Errorf("unable to read input csv, %w", err)
	}
	if cfg.Resample > 0 {
		before := td.Len()
		td, err = timedataset.Resample(td, cfg.Resample, cfg.ResampleKeepEmpty)
		if err != nil {
			return nil, fmt.Errorf("unable to resample input, %w", err)
		}
		slog.Debug("resampled input", "width", cfg.Resample, "before", before, "after", td.Len())
	}
	slog.Info("loaded input", "path", cfg.Path, "points", td.Len())
	return td, nil
}

// fitDetector fits a new detector over the dataset and saves it when a model directory is set
func fitDetector(cfg *config.Config, td *timedataset.TimeDataset) (*outlier.Detector, error) {
	d, err := outlier.New(cfg.Detector)
	if err != nil {
		return nil, err
	}
	if err := d.Fit(td.T, td.Y); err != nil {
		return nil, fmt.Errorf("unable to fit detector, %w", err)
	}
	if cfg.ModelDir != "" {
		if err := d.SaveModel(cfg.ModelDir); err != nil {
			return nil, err
		}
		slog.Info("saved model", "dir", cfg.ModelDir)
	}
	return d, nil
}

// loadOrFitDetector loads the saved model if one exists, otherwise fits over the dataset
func loadOrFitDetector(cfg *config.Config, td *timedataset.TimeDataset) (*outlier.Detector, error) {
	if cfg.ModelDir != "" {
		d, err := outlier.Load(cfg.ModelDir)
		if err == nil {
			if err := d.SetScoreOptions(cfg.Detector.ScoreOptions); err != nil {
				return nil, err
			}
			slog.Info("loaded model", "dir", cfg.ModelDir, "boundary", d.Options().ScoreOptions.Boundary)
			return d, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		slog.Info("no saved model, fitting", "dir", cfg.ModelDir)
	}
	return fitDetector(cfg, td)
}

// createOutput opens path for writing or returns stdout when path is empty
func createOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create output, %w", err)
	}
	return f, f.Close, nil
}
