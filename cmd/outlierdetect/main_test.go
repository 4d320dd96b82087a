package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	outlier "github.com/aouyang1/go-outlier"
	"github.com/aouyang1/go-outlier/internal/config"
	"github.com/aouyang1/go-outlier/internal/store"
	"github.com/aouyang1/go-outlier/score"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEnd = "2024-03-18T00:00:00Z"

func testConfig(t *testing.T, dir string) string {
	t.Helper()
	content := `
input:
  path: ` + filepath.Join(dir, "series.csv") + `
  series: simulated
model_dir: ` + filepath.Join(dir, "model") + `
output:
  sqlite: ` + filepath.Join(dir, "runs.db") + `
  metrics: ` + filepath.Join(dir, "outlier.prom") + `
  plot: ` + filepath.Join(dir, "detect.html") + `
log:
  level: warn
simulate:
  points: 336
  interval: 1h
  seed: 42
  noise: 1.0
  spikes: 3
  spike_height: 40
`
	path := filepath.Join(dir, "config.yaml")
	require.Nil(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func TestSimulate(t *testing.T) {
	end, err := time.Parse(time.RFC3339, testEnd)
	require.Nil(t, err)

	cfg := config.Default().Simulate
	cfg.Points = 100
	cfg.Interval = time.Hour
	cfg.Spikes = 4

	td, spikes, err := simulate(cfg, end)
	require.Nil(t, err)
	assert.Equal(t, 100, td.Len())
	assert.True(t, end.Add(-100*time.Hour).Equal(td.T[0]))
	assert.Len(t, spikes, 4)

	again, _, err := simulate(cfg, end)
	require.Nil(t, err)
	assert.Equal(t, td.Y, again.Y)
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	cfgPath := testConfig(t, dir)

	out, err := runCmd(t, "-config", cfgPath, "simulate", "-end", testEnd, "-output", filepath.Join(dir, "series.csv"))
	require.Nil(t, err)
	assert.Empty(t, out)

	out, err = runCmd(t, "-config", cfgPath, "fit")
	require.Nil(t, err)
	assert.Contains(t, out, "Series:")
	_, err = os.Stat(filepath.Join(dir, "model", outlier.ModelFile))
	require.Nil(t, err)

	out, err = runCmd(t, "-config", cfgPath, "detect", "-format", "json")
	require.Nil(t, err)
	var records []outlier.Record
	require.Nil(t, json.Unmarshal([]byte(out), &records))
	assert.Len(t, records, 336)

	var outliers int
	for _, rec := range records {
		if rec.IsOutlier {
			outliers++
			require.NotNil(t, rec.Score)
			assert.Greater(t, *rec.Score, 0.0)
		}
	}
	assert.GreaterOrEqual(t, outliers, 1)
	assert.Less(t, outliers, 336/5)

	for _, name := range []string{"runs.db", "outlier.prom", "detect.html"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.Nil(t, err, name)
	}

	s, err := store.Open(filepath.Join(dir, "runs.db"))
	require.Nil(t, err)
	runs, err := s.Runs(context.Background(), "simulated", 0)
	require.Nil(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, outliers, runs[0].Summary.Outliers)
	require.Nil(t, s.Close())

	out, err = runCmd(t, "-config", cfgPath, "runs", "-series", "simulated")
	require.Nil(t, err)
	var listed []store.Run
	require.Nil(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, runs[0].ID, listed[0].ID)

	out, err = runCmd(t, "-config", cfgPath, "runs", "-run", runs[0].ID, "-outliers")
	require.Nil(t, err)
	var flagged []outlier.Record
	require.Nil(t, json.Unmarshal([]byte(out), &flagged))
	assert.Len(t, flagged, outliers)

	out, err = runCmd(t, "-config", cfgPath, "detect", "-output", "-")
	require.Nil(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 337)
	assert.Equal(t, "time,observed,forecast,lower,upper,score,is_outlier", lines[0])

	plotPath := filepath.Join(dir, "fit.html")
	_, err = runCmd(t, "-config", cfgPath, "plot", "-output", plotPath, "-horizon", "24")
	require.Nil(t, err)
	html, err := os.ReadFile(plotPath)
	require.Nil(t, err)
	assert.Contains(t, string(html), "Forecast Fit")
}

func TestSavedModelUsesConfiguredBoundary(t *testing.T) {
	dir := t.TempDir()
	cfgPath := testConfig(t, dir)

	_, err := runCmd(t, "-config", cfgPath, "simulate", "-end", testEnd, "-output", filepath.Join(dir, "series.csv"))
	require.Nil(t, err)
	_, err = runCmd(t, "-config", cfgPath, "fit")
	require.Nil(t, err)

	f, err := os.OpenFile(cfgPath, os.O_APPEND|os.O_WRONLY, 0o644)
	require.Nil(t, err)
	_, err = f.WriteString("detector:\n  score_options:\n    boundary: exclusive\n")
	require.Nil(t, err)
	require.Nil(t, f.Close())

	cfg, err := config.Load(cfgPath)
	require.Nil(t, err)
	td, err := readInput(cfg.Input)
	require.Nil(t, err)

	d, err := loadOrFitDetector(cfg, td)
	require.Nil(t, err)
	assert.Equal(t, score.BoundaryExclusive, d.Options().ScoreOptions.Boundary)

	pred, err := d.Predict(td.T[:1])
	require.Nil(t, err)
	res, err := d.Detect(td.T[:1], pred.Upper)
	require.Nil(t, err)
	assert.Equal(t, 0.0, res.Score[0])
	assert.True(t, res.IsOutlier[0])
}

func TestRunErrors(t *testing.T) {
	testData := map[string]struct {
		args        []string
		expectedErr error
	}{
		"no command":      {[]string{}, ErrUnknownCommand},
		"unknown command": {[]string{"train"}, ErrUnknownCommand},
		"fit no model":    {[]string{"fit", "-input", "x.csv"}, ErrNoModelDir},
		"detect no input": {[]string{"detect"}, ErrNoInput},
		"plot no output":  {[]string{"plot"}, ErrNoPlotPath},
		"watch no config": {[]string{"watch"}, ErrNoConfigPath},
		"runs no db":      {[]string{"runs"}, ErrNoStore},
		"bad log format":  {[]string{"-log-format", "xml", "detect"}, config.ErrUnknownFormat},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := runCmd(t, td.args...)
			assert.ErrorIs(t, err, td.expectedErr)
		})
	}
}
