package outlier

import (
	"testing"

	"github.com/aouyang1/go-outlier/forecast"
	"github.com/aouyang1/go-outlier/score"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seasonalityNames(opt *forecast.Options) []string {
	var names []string
	for _, cfg := range opt.SeasonalityOptions.SeasonalityConfigs {
		names = append(names, cfg.Name)
	}
	return names
}

func TestOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		opt         *Options
		expectedErr error
	}{
		"default": {NewDefaultOptions(), nil},
		"empty":   {&Options{}, nil},
		"negative threshold": {
			&Options{UncertaintyThreshold: -1.0},
			ErrNegativeThreshold,
		},
		"negative window": {
			&Options{UncertaintyOptions: &UncertaintyOptions{ResidualWindow: -1}},
			ErrNegativeWindow,
		},
		"inverted percentiles": {
			&Options{SeriesOptions: &SeriesOptions{
				OutlierOptions: &OutlierOptions{LowerPercentile: 0.9, UpperPercentile: 0.1},
			}},
			ErrInvalidPercentile,
		},
		"unknown boundary": {
			&Options{ScoreOptions: &score.Options{Boundary: "open"}},
			score.ErrUnknownBoundary,
		},
		"unknown solver": {
			&Options{SeriesOptions: &SeriesOptions{
				ForecastOptions: &forecast.Options{Solver: "gd"},
			}},
			forecast.ErrUnknownSolver,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			err := td.opt.Validate()
			if td.expectedErr != nil {
				assert.ErrorIs(t, err, td.expectedErr)
				return
			}
			require.Nil(t, err)
			assert.NotNil(t, td.opt.SeriesOptions.ForecastOptions)
			assert.NotNil(t, td.opt.UncertaintyOptions.ForecastOptions)
			assert.NotNil(t, td.opt.ScoreOptions)
			assert.Equal(t, DefaultUncertaintyThreshold, td.opt.UncertaintyThreshold)
			assert.Equal(t, DefaultResidualWindow, td.opt.UncertaintyOptions.ResidualWindow)
		})
	}
}

func TestOptionsSeasonalityFlags(t *testing.T) {
	testData := map[string]struct {
		daily, weekly, yearly bool
		expected              []string
	}{
		"none":          {false, false, false, nil},
		"daily only":    {true, false, false, []string{forecast.LabelSeasDaily}},
		"default":       {true, true, false, []string{forecast.LabelSeasDaily, forecast.LabelSeasWeekly}},
		"weekly yearly": {false, true, true, []string{forecast.LabelSeasWeekly, forecast.LabelSeasYearly}},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt := NewDefaultOptions()
			opt.DailySeasonality = td.daily
			opt.WeeklySeasonality = td.weekly
			opt.YearlySeasonality = td.yearly
			require.Nil(t, opt.Validate())

			assert.ElementsMatch(t, td.expected, seasonalityNames(opt.SeriesOptions.ForecastOptions))
			assert.ElementsMatch(t, td.expected, seasonalityNames(opt.UncertaintyOptions.ForecastOptions))
		})
	}
}

func TestUncertaintyOptionsNoGrowth(t *testing.T) {
	opt := NewUncertaintyOptions()
	assert.Equal(t, forecast.GrowthNone, opt.ForecastOptions.GrowthType)
}
