package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/aouyang1/go-outlier/internal/store"
	"github.com/goccy/go-json"
)

var ErrNoStore = errors.New("runs requires an sqlite path")

// runRuns lists stored runs as json, or the points of one run when -run is set
func runRuns(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	dbPath := fs.String("db", e.cfg.Output.SQLite, "sqlite database written by detect")
	series := fs.String("series", "", "only list runs of this series")
	limit := fs.Int("limit", 10, "maximum runs to list, 0 lists every run")
	runID := fs.String("run", "", "print the points of this run instead of listing runs")
	outliersOnly := fs.Bool("outliers", false, "only print flagged points of the run")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dbPath == "" {
		return ErrNoStore
	}

	s, err := store.Open(*dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	var out any
	if *runID != "" {
		out, err = s.Points(ctx, *runID, *outliersOnly)
	} else {
		out, err = s.Runs(ctx, *series, *limit)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(e.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("unable to write runs, %w", err)
	}
	return nil
}
