package forecast

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/aouyang1/go-outlier/timedataset"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func hourly(n int) []time.Time {
	t := make([]time.Time, n)
	for i := range t {
		t[i] = testStart.Add(time.Duration(i) * time.Hour)
	}
	return t
}

func dailyWave(t []time.Time) []float64 {
	return timedataset.GenerateConstY(len(t), 10.0).
		Add(timedataset.GenerateWaveY(t, 5.0, 86400.0, 1.0, 0)).
		Add(timedataset.GenerateWaveY(t, 2.0, 86400.0, 2.0, 3600.0))
}

func olsOptions(dailyOrders int) *Options {
	opt := NewDefaultOptions()
	opt.Solver = SolverOLS
	opt.GrowthType = GrowthNone
	opt.SeasonalityOptions = SeasonalityOptions{
		SeasonalityConfigs: []SeasonalityConfig{NewDailySeasonalityConfig(dailyOrders)},
	}
	return opt
}

func TestForecastFitPredict(t *testing.T) {
	testData := map[string]struct {
		opt *Options
		tol float64
	}{
		"ols":   {olsOptions(2), 1e-6},
		"lasso": {&Options{SeasonalityOptions: olsOptions(2).SeasonalityOptions}, 1e-2},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			tSeries := hourly(7 * 24)
			y := dailyWave(tSeries)

			f, err := New(td.opt)
			require.Nil(t, err)
			require.Nil(t, f.Fit(tSeries, y))

			assert.InDelta(t, 10.0, f.Intercept(), td.tol)
			scores := f.Scores()
			assert.InDelta(t, 1.0, scores.R2, td.tol)
			assert.InDelta(t, 0.0, scores.MSE, td.tol)

			// forecast a day past training
			horizon := timedataset.TimeSlice(tSeries).Horizon(24, time.Hour)
			res, comp, err := f.Predict(horizon)
			require.Nil(t, err)
			assert.InDeltaSlice(t, dailyWave(horizon), res, td.tol*10)

			for i := range res {
				assert.InDelta(t, res[i], comp.Trend[i]+comp.Seasonality[i]+comp.Event[i], 1e-9)
			}

			assert.Len(t, f.Residuals(), len(tSeries))
			assert.Len(t, f.TrendComponent(), len(tSeries))
			assert.Len(t, f.SeasonalityComponent(), len(tSeries))
			assert.Len(t, f.EventComponent(), len(tSeries))

			start, end := f.TrainingWindow()
			assert.Equal(t, tSeries[0], start)
			assert.Equal(t, tSeries[len(tSeries)-1], end)
		})
	}
}

func TestForecastNaNTraining(t *testing.T) {
	tSeries := hourly(3 * 24)
	y := dailyWave(tSeries)
	y[5] = math.NaN()
	y[30] = math.NaN()

	f, err := New(olsOptions(2))
	require.Nil(t, err)
	require.Nil(t, f.Fit(tSeries, y))

	residual := f.Residuals()
	assert.True(t, math.IsNaN(residual[5]))
	assert.True(t, math.IsNaN(residual[30]))
	assert.InDelta(t, 0.0, residual[6], 1e-6)
}

func TestForecastErrors(t *testing.T) {
	var nilForecast *Forecast
	assert.ErrorIs(t, nilForecast.Fit(nil, nil), ErrUninitializedForecast)
	_, _, err := nilForecast.Predict(nil)
	assert.ErrorIs(t, err, ErrUninitializedForecast)

	f, err := New(nil)
	require.Nil(t, err)

	_, _, err = f.Predict(hourly(2))
	assert.ErrorIs(t, err, ErrUntrainedForecast)
	_, err = f.Model()
	assert.ErrorIs(t, err, ErrUntrainedForecast)
	_, err = f.ModelEq()
	assert.ErrorIs(t, err, ErrUntrainedForecast)

	err = f.Fit(hourly(3), []float64{1, math.NaN(), math.NaN()})
	assert.ErrorIs(t, err, ErrInsufficientTrainingData)

	err = f.Fit(hourly(3), []float64{1, 2})
	assert.ErrorIs(t, err, timedataset.ErrDatasetLenMismatch)

	_, err = New(&Options{Solver: "gradient"})
	assert.ErrorIs(t, err, ErrUnknownSolver)
}

func TestForecastSkipsLongSeasonality(t *testing.T) {
	opt := olsOptions(1)
	opt.SeasonalityOptions.SeasonalityConfigs = append(opt.SeasonalityOptions.SeasonalityConfigs,
		NewWeeklySeasonalityConfig(2),
		NewYearlySeasonalityConfig(4),
	)

	tSeries := hourly(3 * 24)
	f, err := New(opt)
	require.Nil(t, err)
	require.Nil(t, f.Fit(tSeries, dailyWave(tSeries)))

	for _, label := range f.FeatureLabels() {
		name, _ := label.Get("name")
		assert.Equal(t, LabelSeasDaily, name, label.String())
	}
}

func TestForecastConstantSeries(t *testing.T) {
	opt := olsOptions(0)
	opt.SeasonalityOptions.SeasonalityConfigs = nil

	tSeries := hourly(10)
	f, err := New(opt)
	require.Nil(t, err)
	require.Nil(t, f.Fit(tSeries, []float64{3, 3, 3, 3, 3, 3, 3, 3, 3, 3}))

	assert.Equal(t, 3.0, f.Intercept())
	_, err = f.Coefficients()
	assert.ErrorIs(t, err, ErrNoModelCoefficients)

	res, _, err := f.Predict(hourly(2))
	require.Nil(t, err)
	assert.Equal(t, []float64{3, 3}, res)
}

func TestForecastEvents(t *testing.T) {
	tSeries := hourly(14 * 24)
	promoStart := testStart.Add(3*24*time.Hour + 12*time.Hour)
	promoEnd := promoStart.Add(6 * time.Hour)

	y := timedataset.GenerateConstY(len(tSeries), 10.0).
		Add(timedataset.GenerateConstY(len(tSeries), 0).SetConst(tSeries, 20.0, promoStart, promoEnd))

	opt := olsOptions(1)
	opt.EventOptions.Events = []Event{
		NewEvent("promo", promoStart, promoEnd),
		NewEvent("future", testStart.AddDate(5, 0, 0), testStart.AddDate(5, 0, 1)),
		NewEvent("", promoStart, promoEnd),
	}

	f, err := New(opt)
	require.Nil(t, err)
	require.Nil(t, f.Fit(tSeries, y))

	coef, err := f.Coefficients()
	require.Nil(t, err)
	assert.InDelta(t, 20.0, coef["event_promo"], 1e-6)
	_, exists := coef["event_future"]
	assert.False(t, exists)

	eventComp := f.EventComponent()
	assert.InDelta(t, 20.0, eventComp[3*24+12], 1e-6)
	assert.InDelta(t, 0.0, eventComp[0], 1e-6)
}

func TestForecastLinearGrowth(t *testing.T) {
	tSeries := hourly(5 * 24)
	y := make([]float64, len(tSeries))
	for i := range y {
		y[i] = 5.0 + 0.1*float64(i)
	}

	opt := olsOptions(1)
	opt.GrowthType = GrowthLinear
	f, err := New(opt)
	require.Nil(t, err)
	require.Nil(t, f.Fit(tSeries, y))

	coef, err := f.Coefficients()
	require.Nil(t, err)
	assert.InDelta(t, 0.1*float64(len(tSeries)-1), coef["growth_linear"], 1e-6)

	horizon := timedataset.TimeSlice(tSeries).Horizon(2, time.Hour)
	res, _, err := f.Predict(horizon)
	require.Nil(t, err)
	assert.InDeltaSlice(t, []float64{5.0 + 0.1*float64(len(tSeries)), 5.0 + 0.1*float64(len(tSeries)+1)}, res, 1e-6)
}

func TestForecastChangepoint(t *testing.T) {
	tSeries := hourly(4 * 24)
	chpt := testStart.Add(2 * 24 * time.Hour)
	y := timedataset.GenerateConstY(len(tSeries), 10.0).
		Add(timedataset.GenerateChange(tSeries, chpt, 15.0, 0))

	opt := olsOptions(1)
	opt.ChangepointOptions.Changepoints = []Changepoint{NewChangepoint("deploy", chpt)}
	f, err := New(opt)
	require.Nil(t, err)
	require.Nil(t, f.Fit(tSeries, y))

	coef, err := f.Coefficients()
	require.Nil(t, err)
	assert.InDelta(t, 15.0, coef["chpnt_deploy_bias"], 1e-6)
}

func TestForecastAutoChangepoints(t *testing.T) {
	opt := olsOptions(1)
	opt.ChangepointOptions.Auto = true
	opt.ChangepointOptions.AutoNumChangepoints = 3

	tSeries := hourly(4 * 24)
	f, err := New(opt)
	require.Nil(t, err)
	require.Nil(t, f.Fit(tSeries, dailyWave(tSeries)))

	chpts := f.Options().ChangepointOptions.Changepoints
	require.Len(t, chpts, 3)
	assert.Equal(t, "auto_1", chpts[0].Name)
	assert.Equal(t, testStart.Add(tSeries[len(tSeries)-1].Sub(testStart)/4), chpts[0].T)
}

func TestForecastModelRoundTrip(t *testing.T) {
	opt := olsOptions(2)
	opt.WeekendOptions.Enabled = true
	opt.HolidayOptions.Holidays = []string{HolidayNewYear}

	tSeries := hourly(10 * 24)
	f, err := New(opt)
	require.Nil(t, err)
	require.Nil(t, f.Fit(tSeries, dailyWave(tSeries)))

	m, err := f.Model()
	require.Nil(t, err)
	out, err := json.Marshal(m)
	require.Nil(t, err)

	var loaded Model
	require.Nil(t, json.Unmarshal(out, &loaded))

	f2, err := NewFromModel(loaded)
	require.Nil(t, err)

	horizon := timedataset.TimeSlice(tSeries).Horizon(48, time.Hour)
	expected, _, err := f.Predict(horizon)
	require.Nil(t, err)
	res, _, err := f2.Predict(horizon)
	require.Nil(t, err)
	assert.InDeltaSlice(t, expected, res, 1e-9)

	eq, err := f2.ModelEq()
	require.Nil(t, err)
	assert.True(t, strings.HasPrefix(eq, "y ~ "))
	assert.Equal(t, f.Scores(), f2.Scores())

	_, err = NewFromModel(Model{})
	assert.ErrorIs(t, err, ErrNoOptions)
}
