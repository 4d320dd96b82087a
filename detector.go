// Package outlier detects outliers in a univariate time series by fitting a forecast with an
// uncertainty interval and scoring each observed value by its distance to the interval bounds.
package outlier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/aouyang1/go-outlier/forecast"
	"github.com/aouyang1/go-outlier/score"
	"github.com/aouyang1/go-outlier/stats"
	"github.com/aouyang1/go-outlier/timedataset"
)

var (
	ErrInsufficientResidual = errors.New("insufficient samples from residual after outlier removal")
	ErrEmptyTimeDataset     = errors.New("no timedataset or uninitialized")
	ErrNoOptionsInModel     = errors.New("no options set in model")
	ErrCannotInferInterval  = errors.New("cannot infer interval from training data time")
	ErrNotFit               = errors.New("detector has not been fit")
	ErrResultsLenMismatch   = errors.New("observed values have a different length than time")
)

const (
	MinResidualWindow       = 2
	MinResidualSize         = 2
	MinResidualWindowFactor = 4
)

// Detector fits a series and uncertainty forecast and scores observed values against the
// resulting interval
type Detector struct {
	opt    *Options
	scorer *score.Scorer

	seriesForecast      *forecast.Forecast
	uncertaintyForecast *forecast.Forecast

	fitTrainingData *timedataset.TimeDataset
	fitResults      *Results
	residual        []float64
	fit             bool
}

// New creates a new instance of a Detector using the provided options. If no options are provided
// a default is used.
func New(opt *Options) (*Detector, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if err := opt.Validate(); err != nil {
		return nil, fmt.Errorf("unable to validate detector options, %w", err)
	}

	seriesForecast, err := forecast.New(opt.SeriesOptions.ForecastOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize forecast series, %w", err)
	}
	uncertaintyForecast, err := forecast.New(opt.UncertaintyOptions.ForecastOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize forecast uncertainty, %w", err)
	}
	scorer, err := score.NewScorer(opt.ScoreOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize scorer, %w", err)
	}

	return &Detector{
		opt:                 opt,
		scorer:              scorer,
		seriesForecast:      seriesForecast,
		uncertaintyForecast: uncertaintyForecast,
	}, nil
}

// NewFromModel creates a new instance of Detector from a pre-existing model. This should be
// generated from a previous Detector call to Model().
func NewFromModel(model Model) (*Detector, error) {
	if model.Options == nil {
		return nil, ErrNoOptionsInModel
	}
	opt := model.Options
	if opt.SeriesOptions == nil {
		opt.SeriesOptions = NewSeriesOptions()
	}
	if opt.UncertaintyOptions == nil {
		opt.UncertaintyOptions = NewUncertaintyOptions()
	}
	opt.SeriesOptions.ForecastOptions = model.Series.Options
	opt.UncertaintyOptions.ForecastOptions = model.Uncertainty.Options

	seriesForecast, err := forecast.NewFromModel(model.Series)
	if err != nil {
		return nil, fmt.Errorf("unable to load from series model, %w", err)
	}
	uncertaintyForecast, err := forecast.NewFromModel(model.Uncertainty)
	if err != nil {
		return nil, fmt.Errorf("unable to load from uncertainty model, %w", err)
	}
	if opt.ScoreOptions == nil {
		opt.ScoreOptions = score.NewDefaultOptions()
	}
	scorer, err := score.NewScorer(opt.ScoreOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize scorer, %w", err)
	}

	return &Detector{
		opt:                 opt,
		scorer:              scorer,
		seriesForecast:      seriesForecast,
		uncertaintyForecast: uncertaintyForecast,
		fit:                 true,
	}, nil
}

// Options returns the detector options
func (d *Detector) Options() *Options {
	return d.opt
}

// SetScoreOptions replaces the scoring convention without refitting. The boundary is not part of
// the fitted model so a loaded detector can score with the current configuration. Fit results
// keep the scores computed at fit time.
func (d *Detector) SetScoreOptions(opt *score.Options) error {
	opt, err := opt.Validate()
	if err != nil {
		return fmt.Errorf("unable to validate score options, %w", err)
	}
	scorer, err := score.NewScorer(opt)
	if err != nil {
		return fmt.Errorf("unable to initialize scorer, %w", err)
	}
	d.scorer = scorer
	d.opt.ScoreOptions = opt
	return nil
}

// Fit trains the series forecast, removing outliers between passes, then trains the uncertainty
// forecast on the rolling standard deviation of the series residual. NaN values are treated as
// missing.
func (d *Detector) Fit(t []time.Time, y []float64) error {
	td, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		return fmt.Errorf("unable to create training dataset, %w", err)
	}
	d.fitTrainingData = td

	// outlier passes overwrite values with NaN so fit on a copy
	work := td.Copy()
	residual, err := d.fitSeriesWithOutliers(work.T, work.Y)
	if err != nil {
		return err
	}
	d.residual = residual

	if err := d.fitUncertainty(td.T, residual); err != nil {
		return err
	}
	d.fit = true

	d.fitResults, err = d.Predict(td.T)
	if err != nil {
		return fmt.Errorf("unable to get predicted values from training set, %w", err)
	}
	d.fitResults.setObserved(d.fitTrainingData.Y)
	if err := d.fitResults.score(context.Background(), d.scorer); err != nil {
		return fmt.Errorf("unable to score training set, %w", err)
	}
	return nil
}

// fitSeriesWithOutliers fits the series and returns its residual. Outliers found in the residual
// are set to NaN in y and the series is refit up to the configured number of passes.
func (d *Detector) fitSeriesWithOutliers(t []time.Time, y []float64) ([]float64, error) {
	oo := d.opt.SeriesOptions.OutlierOptions
	numPasses := 0
	if oo != nil {
		numPasses = oo.NumPasses
	}

	var residual []float64
	for i := 0; i <= numPasses; i++ {
		if err := d.seriesForecast.Fit(t, y); err != nil {
			return nil, fmt.Errorf("unable to forecast series, %w", err)
		}
		residual = d.seriesForecast.Residuals()

		if oo == nil || i == numPasses {
			break
		}

		outlierIdxs := stats.DetectOutliers(residual, oo.LowerPercentile, oo.UpperPercentile, oo.TukeyFactor)
		if len(outlierIdxs) == 0 {
			break
		}
		slog.Debug("removing training outliers", "pass", i+1, "outliers", len(outlierIdxs))
		for _, idx := range outlierIdxs {
			y[idx] = math.NaN()
		}
	}
	return residual, nil
}

func (d *Detector) fitUncertainty(t []time.Time, residual []float64) error {
	// the window is not necessarily a block of continuous time but could jump across
	// outlier points
	resT := make([]time.Time, 0, len(t))
	res := make([]float64, 0, len(residual))
	for i, r := range residual {
		if math.IsNaN(r) {
			continue
		}
		resT = append(resT, t[i])
		res = append(res, r)
	}
	if len(res) < MinResidualSize {
		return ErrInsufficientResidual
	}

	// limit residual window to a quarter of the residual
	window := min(d.opt.UncertaintyOptions.ResidualWindow, len(res)/MinResidualWindowFactor)
	window = max(window, MinResidualWindow)

	stddev, err := stats.RollingStdDev(res, window)
	if err != nil {
		return fmt.Errorf("unable to compute residual standard deviation, %w", err)
	}
	for i := range stddev {
		stddev[i] *= d.opt.UncertaintyThreshold
	}

	// shift by half the window to center each standard deviation on the points it covers
	start := window / 2
	end := start + len(stddev)
	if err := d.uncertaintyForecast.Fit(resT[start:end], stddev); err != nil {
		return fmt.Errorf("unable to forecast uncertainty, %w", err)
	}
	return nil
}

// Predict takes in any set of time samples and generates a forecast, upper, lower values per time
// point. Observed values and scores are NaN.
func (d *Detector) Predict(t []time.Time) (*Results, error) {
	if !d.fit {
		return nil, ErrNotFit
	}
	seriesRes, seriesComp, err := d.seriesForecast.Predict(t)
	if err != nil {
		return nil, fmt.Errorf("unable to predict series forecasts, %w", err)
	}
	uncertaintyRes, uncertaintyComp, err := d.uncertaintyForecast.Predict(t)
	if err != nil {
		return nil, fmt.Errorf("unable to predict uncertainty forecasts, %w", err)
	}

	r := newResults(len(t))
	copy(r.T, t)
	r.SeriesComponents = seriesComp
	r.UncertaintyComponents = uncertaintyComp
	for i := range t {
		// the uncertainty forecast can dip below zero between fit windows
		halfWidth := max(uncertaintyRes[i], d.opt.MinUncertaintyValue)
		r.Forecast[i] = seriesRes[i]
		r.Upper[i] = seriesRes[i] + halfWidth
		r.Lower[i] = seriesRes[i] - halfWidth
	}
	return r, nil
}

// Detect predicts the interval for each time point and scores the observed value against it.
// Missing observed values are NaN and left unscored.
func (d *Detector) Detect(t []time.Time, y []float64) (*Results, error) {
	return d.DetectContext(context.Background(), t, y)
}

// DetectContext is Detect with a context to cancel scoring of large inputs
func (d *Detector) DetectContext(ctx context.Context, t []time.Time, y []float64) (*Results, error) {
	if len(t) != len(y) {
		return nil, fmt.Errorf("time has length %d, but values have length %d, %w", len(t), len(y), ErrResultsLenMismatch)
	}
	res, err := d.Predict(t)
	if err != nil {
		return nil, err
	}
	res.setObserved(y)
	if err := res.score(ctx, d.scorer); err != nil {
		return nil, err
	}
	return res, nil
}

// Residuals returns the difference between the final series fit against the training data
func (d *Detector) Residuals() []float64 {
	return append([]float64(nil), d.residual...)
}

// TrendComponent returns the trend component of the series fit
func (d *Detector) TrendComponent() []float64 {
	return d.seriesForecast.TrendComponent()
}

// SeasonalityComponent returns the seasonality component of the series fit
func (d *Detector) SeasonalityComponent() []float64 {
	return d.seriesForecast.SeasonalityComponent()
}

// SeriesModelEq returns a string representation of the fit series model represented as
// y ~ b + m1x1 + m2x2 ...
func (d *Detector) SeriesModelEq() (string, error) {
	return d.seriesForecast.ModelEq()
}

// UncertaintyModelEq returns a string representation of the fit uncertainty model represented as
// y ~ b + m1x1 + m2x2 ...
func (d *Detector) UncertaintyModelEq() (string, error) {
	return d.uncertaintyForecast.ModelEq()
}

// SeriesCoefficients returns all coefficient weight associated with the component label string
func (d *Detector) SeriesCoefficients() (map[string]float64, error) {
	return d.seriesForecast.Coefficients()
}

// TrainingData returns the training data used to fit the current detector
func (d *Detector) TrainingData() *timedataset.TimeDataset {
	return d.fitTrainingData
}

// FitResults returns the results of the fit which includes the forecast, upper, and lower values
// along with the training values as observed and their scores
func (d *Detector) FitResults() *Results {
	return d.fitResults
}

// Model generates a serializable representation of the fit options, series model, and uncertainty
// model. This can be used to initialize a new Detector for immediate detection skipping the
// training step.
func (d *Detector) Model() (Model, error) {
	seriesModel, err := d.seriesForecast.Model()
	if err != nil {
		return Model{}, fmt.Errorf("unable to fetch series model, %w", err)
	}
	uncertaintyModel, err := d.uncertaintyForecast.Model()
	if err != nil {
		return Model{}, fmt.Errorf("unable to fetch uncertainty model, %w", err)
	}
	return Model{
		Options:     d.opt,
		Series:      seriesModel,
		Uncertainty: uncertaintyModel,
	}, nil
}
