package outlier

import (
	"errors"
	"fmt"
	"slices"

	"github.com/aouyang1/go-outlier/forecast"
	"github.com/aouyang1/go-outlier/score"
)

const (
	DefaultDailyOrders  = 12
	DefaultWeeklyOrders = 6
	DefaultYearlyOrders = 10

	DefaultUncertaintyThreshold = 2.0
	DefaultResidualWindow       = 100
)

var (
	ErrNegativeThreshold = errors.New("uncertainty threshold must be positive")
	ErrNegativeWindow    = errors.New("residual window must not be negative")
	ErrInvalidPercentile = errors.New("outlier percentiles must satisfy 0 <= lower < upper <= 1")
)

// OutlierOptions configures the iterative removal of training outliers before the series fit is
// final. Each pass flags residuals beyond the percentile fences widened by the tukey factor.
type OutlierOptions struct {
	NumPasses       int     `json:"num_passes" yaml:"num_passes"`
	UpperPercentile float64 `json:"upper_percentile" yaml:"upper_percentile"`
	LowerPercentile float64 `json:"lower_percentile" yaml:"lower_percentile"`
	TukeyFactor     float64 `json:"tukey_factor" yaml:"tukey_factor"`
}

func NewOutlierOptions() *OutlierOptions {
	return &OutlierOptions{
		NumPasses:       3,
		UpperPercentile: 0.9,
		LowerPercentile: 0.1,
		TukeyFactor:     1.0,
	}
}

// SeriesOptions configures the fit of the observed series
type SeriesOptions struct {
	ForecastOptions *forecast.Options `json:"forecast_options" yaml:"forecast_options"`
	OutlierOptions  *OutlierOptions   `json:"outlier_options" yaml:"outlier_options"`
}

func NewSeriesOptions() *SeriesOptions {
	return &SeriesOptions{
		ForecastOptions: forecast.NewDefaultOptions(),
		OutlierOptions:  NewOutlierOptions(),
	}
}

// UncertaintyOptions configures the fit of the rolling residual standard deviation used as the
// half width of the uncertainty interval
type UncertaintyOptions struct {
	ForecastOptions *forecast.Options `json:"forecast_options" yaml:"forecast_options"`
	ResidualWindow  int               `json:"residual_window" yaml:"residual_window"`
}

func NewUncertaintyOptions() *UncertaintyOptions {
	opt := forecast.NewDefaultOptions()
	opt.GrowthType = forecast.GrowthNone
	return &UncertaintyOptions{
		ForecastOptions: opt,
		ResidualWindow:  DefaultResidualWindow,
	}
}

// Options configures the Detector. The seasonality flags add or remove the daily, weekly and
// yearly seasonality configs of both the series and uncertainty forecasts.
type Options struct {
	SeriesOptions      *SeriesOptions      `json:"series_options" yaml:"series_options"`
	UncertaintyOptions *UncertaintyOptions `json:"uncertainty_options" yaml:"uncertainty_options"`
	ScoreOptions       *score.Options      `json:"score_options" yaml:"score_options"`

	YearlySeasonality bool `json:"yearly_seasonality" yaml:"yearly_seasonality"`
	WeeklySeasonality bool `json:"weekly_seasonality" yaml:"weekly_seasonality"`
	DailySeasonality  bool `json:"daily_seasonality" yaml:"daily_seasonality"`

	// UncertaintyThreshold is the z-score applied to the residual standard deviation. 2.0 covers
	// roughly 95% of normally distributed residuals.
	UncertaintyThreshold float64 `json:"uncertainty_threshold" yaml:"uncertainty_threshold"`

	// MinUncertaintyValue is the smallest half width of the uncertainty interval
	MinUncertaintyValue float64 `json:"min_uncertainty_value" yaml:"min_uncertainty_value"`
}

// NewDefaultOptions returns options with daily and weekly seasonality and a 2 sigma interval
func NewDefaultOptions() *Options {
	return &Options{
		SeriesOptions:        NewSeriesOptions(),
		UncertaintyOptions:   NewUncertaintyOptions(),
		ScoreOptions:         score.NewDefaultOptions(),
		WeeklySeasonality:    true,
		DailySeasonality:     true,
		UncertaintyThreshold: DefaultUncertaintyThreshold,
	}
}

// Validate fills in unset options, applies the seasonality flags and checks for invalid values
func (o *Options) Validate() error {
	if o.SeriesOptions == nil {
		o.SeriesOptions = NewSeriesOptions()
	}
	if o.SeriesOptions.ForecastOptions == nil {
		o.SeriesOptions.ForecastOptions = forecast.NewDefaultOptions()
	}
	if o.UncertaintyOptions == nil {
		o.UncertaintyOptions = NewUncertaintyOptions()
	}
	if o.UncertaintyOptions.ForecastOptions == nil {
		o.UncertaintyOptions.ForecastOptions = NewUncertaintyOptions().ForecastOptions
	}
	if o.ScoreOptions == nil {
		o.ScoreOptions = score.NewDefaultOptions()
	}

	if o.UncertaintyThreshold == 0 {
		o.UncertaintyThreshold = DefaultUncertaintyThreshold
	}
	if o.UncertaintyThreshold < 0 {
		return ErrNegativeThreshold
	}
	if o.UncertaintyOptions.ResidualWindow < 0 {
		return ErrNegativeWindow
	}
	if o.UncertaintyOptions.ResidualWindow == 0 {
		o.UncertaintyOptions.ResidualWindow = DefaultResidualWindow
	}
	o.MinUncertaintyValue = max(o.MinUncertaintyValue, 0)

	if oo := o.SeriesOptions.OutlierOptions; oo != nil {
		if oo.LowerPercentile < 0 || oo.UpperPercentile > 1 || oo.LowerPercentile >= oo.UpperPercentile {
			return fmt.Errorf("lower %.3f upper %.3f, %w", oo.LowerPercentile, oo.UpperPercentile, ErrInvalidPercentile)
		}
		oo.NumPasses = max(oo.NumPasses, 0)
		oo.TukeyFactor = max(oo.TukeyFactor, 0)
	}

	for _, fOpt := range []*forecast.Options{o.SeriesOptions.ForecastOptions, o.UncertaintyOptions.ForecastOptions} {
		o.applySeasonality(fOpt)
		if err := fOpt.Validate(); err != nil {
			return err
		}
	}

	if _, err := o.ScoreOptions.Validate(); err != nil {
		return fmt.Errorf("unable to validate score options, %w", err)
	}
	return nil
}

func (o *Options) applySeasonality(fOpt *forecast.Options) {
	flags := []struct {
		enabled bool
		cfg     forecast.SeasonalityConfig
	}{
		{o.DailySeasonality, forecast.NewDailySeasonalityConfig(DefaultDailyOrders)},
		{o.WeeklySeasonality, forecast.NewWeeklySeasonalityConfig(DefaultWeeklyOrders)},
		{o.YearlySeasonality, forecast.NewYearlySeasonalityConfig(DefaultYearlyOrders)},
	}

	cfgs := fOpt.SeasonalityOptions.SeasonalityConfigs
	for _, flag := range flags {
		idx := slices.IndexFunc(cfgs, func(cfg forecast.SeasonalityConfig) bool {
			return cfg.Name == flag.cfg.Name
		})
		switch {
		case flag.enabled && idx < 0:
			cfgs = append(cfgs, flag.cfg)
		case !flag.enabled && idx >= 0:
			cfgs = slices.Delete(cfgs, idx, idx+1)
		}
	}
	fOpt.SeasonalityOptions.SeasonalityConfigs = cfgs
}
