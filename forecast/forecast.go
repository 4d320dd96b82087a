// Package forecast fits a linear model of trend, seasonality and event features to a univariate
// time series
package forecast

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aouyang1/go-outlier/feature"
	"github.com/aouyang1/go-outlier/timedataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const LabelTimeEpoch = "epoch"

var (
	ErrNoOptions                = errors.New("no forecast options")
	ErrUninitializedForecast    = errors.New("uninitialized forecast")
	ErrInsufficientTrainingData = errors.New("insufficient training data after removing Nans")
	ErrNoModelCoefficients      = errors.New("no model coefficients from fit")
	ErrUntrainedForecast        = errors.New("forecast has not been trained yet")
)

// Forecast represents a single forecast model of a time series. This is a linear model
// decomposing the series into an intercept, trend components (growth and changepoints),
// seasonal components and events.
type Forecast struct {
	opt    *Options
	scores *Scores // score calculations after training

	fLabels []feature.Feature

	trainStartTime  time.Time
	trainEndTime    time.Time
	residual        []float64
	trainComponents Components

	coef      []float64
	intercept float64
	trained   bool
}

// New creates a new forecast instance with the given options. If none are provided, a default
// is used
func New(opt *Options) (*Forecast, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if err := opt.Validate(); err != nil {
		return nil, fmt.Errorf("unable to validate forecast options, %w", err)
	}
	return &Forecast{opt: opt}, nil
}

// NewFromModel creates a new forecast instance given a forecast Model to initialize. This
// instance can be used for inference immediately and does not need to be trained again.
func NewFromModel(model Model) (*Forecast, error) {
	if model.Options == nil {
		return nil, ErrNoOptions
	}
	if err := model.Options.Validate(); err != nil {
		return nil, fmt.Errorf("unable to validate model options, %w", err)
	}
	fLabels, err := model.Weights.FeatureLabels()
	if err != nil {
		return nil, err
	}

	f := &Forecast{
		opt:            model.Options,
		fLabels:        fLabels,
		trainStartTime: model.TrainStartTime,
		trainEndTime:   model.TrainEndTime,
		intercept:      model.Weights.Intercept,
		coef:           model.Weights.Coefficients(),
		scores:         model.Scores,
		trained:        true,
	}
	return f, nil
}

func (f *Forecast) generateFeatures(t []time.Time) *feature.Set {
	epoch := feature.NewTime(LabelTimeEpoch).Generate(t)
	feat := feature.NewSet()

	if f.opt.GrowthType == GrowthLinear {
		linear := feature.Linear()
		if vals := linear.Generate(epoch, f.trainStartTime, f.trainEndTime); vals != nil {
			feat.Set(linear, vals)
		}
	}
	f.opt.ChangepointOptions.generateFeatures(t, f.trainStartTime, f.trainEndTime, feat)

	// seasonalities longer than the training window cannot be estimated
	f.opt.SeasonalityOptions.generateFeatures(epoch, f.trainEndTime.Sub(f.trainStartTime), feat)

	f.opt.WeekendOptions.generateFeatures(t, feat)
	f.opt.EventOptions.generateFeatures(t, feat)
	f.opt.HolidayOptions.generateFeatures(t, feat)
	return feat
}

// Fit takes the input training data and fits a forecast model for possible changepoints,
// seasonal components, events and intercept. NaN values are ignored.
func (f *Forecast) Fit(t []time.Time, y []float64) error {
	if f == nil {
		return ErrUninitializedForecast
	}

	trainingData, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		return fmt.Errorf("unable to create training dataset, %w", err)
	}
	td := trainingData.DropNan()
	if td.Len() < 2 {
		return ErrInsufficientTrainingData
	}

	f.trainStartTime = td.T[0]
	f.trainEndTime = td.T[td.Len()-1]
	f.opt.ChangepointOptions.generateAutoChangepoints(f.trainStartTime, f.trainEndTime)

	x := f.generateFeatures(td.T)
	x.RemoveZeroOnlyFeatures()
	f.fLabels = x.Labels()

	if x.NumFeatures() == 0 {
		f.intercept = stat.Mean(td.Y, nil)
		f.coef = []float64{}
	} else {
		model, err := f.opt.newModel()
		if err != nil {
			return fmt.Errorf("unable to initialize regression, %w", err)
		}
		if err := model.Fit(x.Matrix(false), mat.NewDense(td.Len(), 1, td.Y)); err != nil {
			return fmt.Errorf("unable to fit regression, %w", err)
		}
		f.intercept = model.Intercept()
		f.coef = model.Coef()
	}
	f.trained = true

	// use input training to include NaNs
	predicted, comp, err := f.Predict(trainingData.T)
	if err != nil {
		return err
	}
	f.trainComponents = comp

	scores, err := NewScores(predicted, trainingData.Y)
	if err != nil {
		return err
	}
	f.scores = scores

	residual := make([]float64, trainingData.Len())
	floats.SubTo(residual, trainingData.Y, predicted)
	f.residual = residual
	return nil
}

// Predict takes a slice of times in any order and produces the predicted value for those
// times given a pre-trained model.
func (f *Forecast) Predict(t []time.Time) ([]float64, Components, error) {
	if f == nil {
		return nil, Components{}, ErrUninitializedForecast
	}
	if !f.trained {
		return nil, Components{}, ErrUntrainedForecast
	}

	x := f.generateFeatures(t)

	comp := newComponents(len(t))
	for i := range comp.Trend {
		comp.Trend[i] = f.intercept
	}
	for i, label := range f.fLabels {
		vals, exists := x.Get(label)
		if !exists || f.coef[i] == 0 {
			continue
		}
		var dst []float64
		switch label.Type() {
		case feature.FeatureTypeSeasonality:
			dst = comp.Seasonality
		case feature.FeatureTypeEvent:
			dst = comp.Event
		default:
			dst = comp.Trend
		}
		floats.AddScaled(dst, f.coef[i], vals)
	}

	res := make([]float64, len(t))
	floats.Add(res, comp.Trend)
	floats.Add(res, comp.Seasonality)
	floats.Add(res, comp.Event)
	return res, comp, nil
}

// FeatureLabels returns the slice of feature labels in the order of the coefficients
func (f *Forecast) FeatureLabels() []feature.Feature {
	if f == nil {
		return nil
	}
	return append([]feature.Feature(nil), f.fLabels...)
}

// Coefficients returns a forecast model map of coefficients keyed by the string
// representation of each feature label
func (f *Forecast) Coefficients() (map[string]float64, error) {
	if f == nil {
		return nil, ErrUninitializedForecast
	}
	if len(f.fLabels) == 0 || len(f.coef) == 0 {
		return nil, ErrNoModelCoefficients
	}
	coef := make(map[string]float64)
	for i, label := range f.fLabels {
		coef[label.String()] = f.coef[i]
	}
	return coef, nil
}

// Intercept returns the intercept of the forecast model
func (f *Forecast) Intercept() float64 {
	if f == nil {
		return 0
	}
	return f.intercept
}

// Options returns the forecast options including any auto generated changepoints
func (f *Forecast) Options() *Options {
	if f == nil {
		return nil
	}
	return f.opt
}

// Model returns the serializable format of the forecast model composed of the forecast options,
// intercept, coefficients with their feature labels, and the model fit scores
func (f *Forecast) Model() (Model, error) {
	if f == nil {
		return Model{}, ErrUninitializedForecast
	}
	if !f.trained {
		return Model{}, ErrUntrainedForecast
	}

	fws := make([]FeatureWeight, 0, len(f.coef))
	for i, c := range f.coef {
		fws = append(fws, NewFeatureWeight(f.fLabels[i], c))
	}
	m := Model{
		TrainStartTime: f.trainStartTime,
		TrainEndTime:   f.trainEndTime,
		Options:        f.opt,
		Scores:         f.scores,
		Weights: Weights{
			Intercept: f.intercept,
			Coef:      fws,
		},
	}
	return m, nil
}

// ModelEq returns a string representation of the model linear equation in the format of
// y ~ b + m1x1 + m2x2 + ...
func (f *Forecast) ModelEq() (string, error) {
	if f == nil {
		return "", ErrUninitializedForecast
	}
	if !f.trained {
		return "", ErrUntrainedForecast
	}

	var eq strings.Builder
	eq.WriteString(fmt.Sprintf("y ~ %.2f", f.intercept))
	for i, label := range f.fLabels {
		w := f.coef[i]
		if w == 0 {
			continue
		}
		eq.WriteString(fmt.Sprintf("+%.2f*%s", w, label))
	}
	return eq.String(), nil
}

// Scores returns the fit scores for evaluating how well the resulting model
// fit the training data
func (f *Forecast) Scores() Scores {
	if f == nil || f.scores == nil {
		return Scores{}
	}
	return *f.scores
}

// Residuals returns the training data minus the fit values. Missing training values are NaN.
func (f *Forecast) Residuals() []float64 {
	if f == nil {
		return nil
	}
	return append([]float64(nil), f.residual...)
}

// TrendComponent represents the intercept, growth and changepoint contribution to the fit
func (f *Forecast) TrendComponent() []float64 {
	if f == nil {
		return nil
	}
	return append([]float64(nil), f.trainComponents.Trend...)
}

// SeasonalityComponent represents the overall seasonal component of the fit
func (f *Forecast) SeasonalityComponent() []float64 {
	if f == nil {
		return nil
	}
	return append([]float64(nil), f.trainComponents.Seasonality...)
}

// EventComponent represents the weekend, holiday and event contribution to the fit
func (f *Forecast) EventComponent() []float64 {
	if f == nil {
		return nil
	}
	return append([]float64(nil), f.trainComponents.Event...)
}

// TrainingWindow returns the first and last non NaN time used in the fit
func (f *Forecast) TrainingWindow() (time.Time, time.Time) {
	if f == nil {
		return time.Time{}, time.Time{}
	}
	return f.trainStartTime, f.trainEndTime
}
