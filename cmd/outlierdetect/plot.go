package main

import (
	"context"
	"errors"
	"flag"
	"io"

	outlier "github.com/aouyang1/go-outlier"
)

var ErrNoPlotPath = errors.New("plot requires an output path")

func runPlot(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("plot", flag.ContinueOnError)
	input := fs.String("input", e.cfg.Input.Path, "input csv path")
	output := fs.String("output", e.cfg.Output.Plot, "html output path")
	mode := fs.String("mode", "fit", "fit plots a fresh fit with a forecast horizon, detect scores the input with the saved model")
	horizon := fs.Int("horizon", 0, "number of points to forecast past the input in fit mode")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *output == "" {
		return ErrNoPlotPath
	}
	e.cfg.Input.Path = *input

	td, err := readInput(e.cfg.Input)
	if err != nil {
		return err
	}

	if *mode == "detect" {
		d, err := loadOrFitDetector(e.cfg, td)
		if err != nil {
			return err
		}
		res, err := d.DetectContext(ctx, td.T, td.Y)
		if err != nil {
			return err
		}
		return writePlot(*output, func(w io.Writer) error {
			return outlier.PlotDetect(w, res)
		})
	}

	// a fit plot never overwrites the saved model
	e.cfg.ModelDir = ""
	d, err := fitDetector(e.cfg, td)
	if err != nil {
		return err
	}
	return writePlot(*output, func(w io.Writer) error {
		return d.PlotFit(w, &outlier.PlotOpts{HorizonCnt: *horizon})
	})
}
