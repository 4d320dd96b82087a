package outlier

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/aouyang1/go-outlier/timedataset"
	"github.com/pkg/profile"
)

var benchDetectRes *Results

func benchSeries() ([]time.Time, []float64) {
	n := 28 * 24 * 12
	t := timedataset.GenerateT(n, 5*time.Minute, func() time.Time { return testStart })
	rng := rand.New(rand.NewPCG(3, 5))
	y := timedataset.GenerateConstY(n, 98.3).
		Add(timedataset.GenerateWaveY(t, 10.5, 86400.0, 1.0, 2*60*60)).
		Add(timedataset.GenerateWaveY(t, -7.3, 86400.0, 3.0, 0).MaskWithWeekend(t)).
		Add(timedataset.GenerateNoise(t, rng, 3.2, 3.2, 86400.0, 5.0, 0.0)).
		Add(timedataset.GenerateChange(t, t[n/2], 10.0, 0.0))
	return t, y
}

func BenchmarkFit(b *testing.B) {
	t, y := benchSeries()
	opt := NewDefaultOptions()
	opt.SeriesOptions.ForecastOptions.WeekendOptions.Enabled = true

	for b.Loop() {
		d, err := New(opt)
		if err != nil {
			b.Fatal(err)
		}
		if err := d.Fit(t, y); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDetectFromModel(b *testing.B) {
	t, y := benchSeries()
	d, err := New(nil)
	if err != nil {
		b.Fatal(err)
	}
	if err := d.Fit(t, y); err != nil {
		b.Fatal(err)
	}
	dir := b.TempDir()
	if err := d.SaveModel(dir); err != nil {
		b.Fatal(err)
	}
	loaded, err := Load(dir)
	if err != nil {
		b.Fatal(err)
	}

	horizon := timedataset.TimeSlice(t).Horizon(24*12, 5*time.Minute)
	observed := timedataset.GenerateConstY(len(horizon), 98.3)

	defer profile.Start(profile.CPUProfile, profile.ProfilePath(b.TempDir()), profile.Quiet).Stop()
	for b.Loop() {
		benchDetectRes, err = loaded.Detect(horizon, observed)
		if err != nil {
			b.Fatal(err)
		}
	}
}
