package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/aouyang1/go-outlier/internal/config"
	"github.com/aouyang1/go-outlier/timedataset"
)

const daySec = 86400.0

// simulate builds a daily seasonal series with a weekend dip, oscillating noise, a level shift
// and the configured number of spikes. Spike indexes are returned in ascending order.
func simulate(cfg config.SimulateConfig, end time.Time) (*timedataset.TimeDataset, []int, error) {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	n := cfg.Points
	t := timedataset.GenerateT(n, cfg.Interval, func() time.Time { return end })
	y := timedataset.GenerateConstY(n, 100.0).
		Add(timedataset.GenerateWaveY(t, 10.0, daySec, 1.0, 2*60*60)).
		Add(timedataset.GenerateWaveY(t, 3.0, daySec, 3.0, 0)).
		Add(timedataset.GenerateWaveY(t, -6.0, daySec, 1.0, 0).MaskWithWeekend(t)).
		Add(timedataset.GenerateNoise(t, rng, cfg.Noise, cfg.Noise/2.0, daySec, 2.0, 0)).
		Add(timedataset.GenerateChange(t, t[n*3/4], 8.0, 0))

	spikes := make([]int, 0, cfg.Spikes)
	for i := 0; i < cfg.Spikes; i++ {
		idx := rng.IntN(n)
		height := cfg.SpikeHeight
		if i%2 == 1 {
			height = -height
		}
		y.Add(timedataset.GenerateSpikes(n, height, idx))
		spikes = append(spikes, idx)
	}
	slices.Sort(spikes)

	td, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		return nil, nil, err
	}
	return td, spikes, nil
}

func runSimulate(_ context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	output := fs.String("output", "", "csv output path, stdout when empty")
	points := fs.Int("points", e.cfg.Simulate.Points, "number of points")
	interval := fs.Duration("interval", e.cfg.Simulate.Interval, "interval between points")
	seed := fs.Uint64("seed", e.cfg.Simulate.Seed, "random seed")
	endStr := fs.String("end", "", "RFC3339 time of the last point, defaults to now")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg := e.cfg.Simulate
	cfg.Points = *points
	cfg.Interval = *interval
	cfg.Seed = *seed
	if cfg.Points < 2 {
		return config.ErrNoPoints
	}

	end := time.Now()
	if *endStr != "" {
		var err error
		end, err = time.Parse(time.RFC3339, *endStr)
		if err != nil {
			return fmt.Errorf("unable to parse end time, %w", err)
		}
	}

	td, spikes, err := simulate(cfg, end)
	if err != nil {
		return err
	}

	w, closeFn, err := createOutput(*output, e.stdout)
	if err != nil {
		return err
	}
	if err := timedataset.WriteCSV(w, td, e.cfg.Input.CSV); err != nil {
		closeFn()
		return fmt.Errorf("unable to write simulated series, %w", err)
	}
	slog.Info("simulated series", "points", td.Len(), "spikes", spikes)
	return closeFn()
}
