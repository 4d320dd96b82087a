package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
)

var ErrNoModelDir = errors.New("fit requires a model directory")

func runFit(_ context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("fit", flag.ContinueOnError)
	input := fs.String("input", e.cfg.Input.Path, "input csv path")
	modelDir := fs.String("model", e.cfg.ModelDir, "directory to save the model into")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e.cfg.Input.Path = *input
	e.cfg.ModelDir = *modelDir
	if e.cfg.ModelDir == "" {
		return ErrNoModelDir
	}

	td, err := readInput(e.cfg.Input)
	if err != nil {
		return err
	}
	d, err := fitDetector(e.cfg, td)
	if err != nil {
		return err
	}

	m, err := d.Model()
	if err != nil {
		return err
	}
	if err := m.TablePrint(e.stdout); err != nil {
		return fmt.Errorf("unable to print model, %w", err)
	}
	logSummary("fit complete", seriesName(e.cfg.Input), d.FitResults().Summary())
	return nil
}
