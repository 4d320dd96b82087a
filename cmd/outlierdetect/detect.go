package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	outlier "github.com/aouyang1/go-outlier"
	"github.com/aouyang1/go-outlier/internal/config"
	"github.com/aouyang1/go-outlier/internal/metrics"
	"github.com/aouyang1/go-outlier/internal/store"
	"github.com/aouyang1/go-outlier/score"
	"github.com/goccy/go-json"
)

func seriesName(cfg config.InputConfig) string {
	if cfg.Series != "" {
		return cfg.Series
	}
	return cfg.Path
}

func logSummary(msg, series string, sum score.Summary) {
	slog.Info(msg,
		"series", series,
		"points", sum.Total,
		"scored", sum.Scored,
		"outliers", sum.Outliers,
		"outlier_ratio", sum.OutlierRatio,
		"max_score", sum.MaxScore,
	)
}

func runDetect(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	input := fs.String("input", e.cfg.Input.Path, "input csv path")
	modelDir := fs.String("model", e.cfg.ModelDir, "model directory to load, or save a new fit into")
	output := fs.String("output", e.cfg.Output.Path, "results path, stdout when empty")
	format := fs.String("format", e.cfg.Output.Format, "results format: csv or json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e.cfg.Input.Path = *input
	e.cfg.ModelDir = *modelDir
	e.cfg.Output.Path = *output
	e.cfg.Output.Format = *format
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	_, err := detect(ctx, e.cfg, e.stdout)
	return err
}

// detect scores the configured input and writes results to every configured sink
func detect(ctx context.Context, cfg *config.Config, stdout io.Writer) (*outlier.Results, error) {
	td, err := readInput(cfg.Input)
	if err != nil {
		return nil, err
	}
	d, err := loadOrFitDetector(cfg, td)
	if err != nil {
		return nil, err
	}
	res, err := d.DetectContext(ctx, td.T, td.Y)
	if err != nil {
		return nil, fmt.Errorf("unable to detect outliers, %w", err)
	}

	series := seriesName(cfg.Input)
	if err := writeResults(cfg, res, stdout); err != nil {
		return nil, err
	}
	if cfg.Output.SQLite != "" {
		if err := saveRun(ctx, cfg.Output, series, res); err != nil {
			return nil, err
		}
	}
	if cfg.Output.Metrics != "" {
		if err := metrics.WriteFile(cfg.Output.Metrics, series, res); err != nil {
			return nil, err
		}
		slog.Debug("wrote metrics", "path", cfg.Output.Metrics)
	}
	if cfg.Output.Plot != "" {
		if err := writePlot(cfg.Output.Plot, func(w io.Writer) error {
			return outlier.PlotDetect(w, res)
		}); err != nil {
			return nil, err
		}
	}
	logSummary("detect complete", series, res.Summary())
	return res, nil
}

func writeResults(cfg *config.Config, res *outlier.Results, stdout io.Writer) error {
	w, closeFn, err := createOutput(cfg.Output.Path, stdout)
	if err != nil {
		return err
	}
	switch cfg.Output.Format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(res.Records())
	default:
		err = outlier.WriteResultsCSV(w, res, cfg.Input.CSV)
	}
	if err != nil {
		closeFn()
		return fmt.Errorf("unable to write results, %w", err)
	}
	return closeFn()
}

func saveRun(ctx context.Context, cfg config.OutputConfig, series string, res *outlier.Results) error {
	s, err := store.Open(cfg.SQLite)
	if err != nil {
		return err
	}
	defer s.Close()

	run, err := s.SaveRun(ctx, series, res)
	if err != nil {
		return err
	}
	slog.Info("stored run", "run_id", run.ID, "path", cfg.SQLite)

	if cfg.Retention <= 0 {
		return nil
	}
	deleted, err := s.DeleteBefore(ctx, run.CreatedAt.Add(-cfg.Retention))
	if err != nil {
		return err
	}
	if deleted > 0 {
		slog.Info("pruned stored runs", "deleted", deleted, "retention", cfg.Retention)
	}
	return nil
}

func writePlot(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create plot, %w", err)
	}
	if err := render(f); err != nil {
		f.Close()
		return fmt.Errorf("unable to render plot, %w", err)
	}
	slog.Info("wrote plot", "path", path)
	return f.Close()
}
