package forecast

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/aouyang1/go-outlier/linearmodel"
)

const (
	SolverLasso = "lasso"
	SolverOLS   = "ols"

	GrowthNone   = "none"
	GrowthLinear = "linear"
)

var (
	ErrUnknownSolver = errors.New("unknown solver")
	ErrUnknownGrowth = errors.New("unknown growth type")
)

// Options configures a forecast by specifying changepoints, seasonality order, events and an
// optional regularization parameter where higher values remove more features that contribute
// the least to the fit.
type Options struct {
	ChangepointOptions ChangepointOptions `json:"changepoint_options" yaml:"changepoint_options"`
	SeasonalityOptions SeasonalityOptions `json:"seasonality_options" yaml:"seasonality_options"`
	WeekendOptions     WeekendOptions     `json:"weekend_options" yaml:"weekend_options"`
	EventOptions       EventOptions       `json:"event_options" yaml:"event_options"`
	HolidayOptions     HolidayOptions     `json:"holiday_options" yaml:"holiday_options"`

	// GrowthType adds a linear trend across the training window when set to linear
	GrowthType string `json:"growth_type" yaml:"growth_type"`

	// Solver picks the regression used to fit the features, lasso (default) or ols
	Solver string `json:"solver" yaml:"solver"`

	// Regularization are the lambdas to try with the lasso solver keeping the best fit. The ols
	// solver uses the first value as a ridge penalty.
	Regularization  []float64 `json:"regularization" yaml:"regularization"`
	Iterations      int       `json:"iterations" yaml:"iterations"`
	Tolerance       float64   `json:"tolerance" yaml:"tolerance"`
	Parallelization int       `json:"parallelization" yaml:"parallelization"`
}

// NewDefaultOptions returns a set of default forecast options
func NewDefaultOptions() *Options {
	return &Options{
		ChangepointOptions: NewDefaultChangepointOptions(),
		SeasonalityOptions: NewDefaultSeasonalityOptions(),
		GrowthType:         GrowthLinear,
		Solver:             SolverLasso,
		Regularization:     []float64{0.0},
		Iterations:         linearmodel.DefaultIterations,
		Tolerance:          linearmodel.DefaultTolerance,
	}
}

// Validate fills in unset options and returns an error for invalid ones
func (o *Options) Validate() error {
	if o == nil {
		return ErrNoOptions
	}

	switch o.Solver {
	case "":
		o.Solver = SolverLasso
	case SolverLasso, SolverOLS:
	default:
		return fmt.Errorf("%q, %w", o.Solver, ErrUnknownSolver)
	}

	switch o.GrowthType {
	case "", GrowthNone, GrowthLinear:
	default:
		return fmt.Errorf("%q, %w", o.GrowthType, ErrUnknownGrowth)
	}

	if len(o.Regularization) == 0 {
		o.Regularization = []float64{0.0}
	}
	if slices.Min(o.Regularization) < 0 {
		return linearmodel.ErrNegativeLambda
	}
	if o.Iterations < 0 {
		return linearmodel.ErrNegativeIterations
	}
	if o.Iterations == 0 {
		o.Iterations = linearmodel.DefaultIterations
	}
	if o.Tolerance < 0 {
		return linearmodel.ErrNegativeTolerance
	}
	if o.Tolerance == 0 {
		o.Tolerance = linearmodel.DefaultTolerance
	}

	if err := o.HolidayOptions.Validate(); err != nil {
		return err
	}

	o.SeasonalityOptions.removeInvalid()
	o.WeekendOptions.Validate()
	return nil
}

// newModel creates the regression for the configured solver. The intercept is always fit by the
// regression rather than as a feature.
func (o *Options) newModel() (linearmodel.Model, error) {
	switch o.Solver {
	case SolverOLS:
		return linearmodel.NewOLSRegression(&linearmodel.OLSOptions{
			FitIntercept: true,
			Lambda:       o.Regularization[0],
		})
	default:
		return linearmodel.NewLassoAutoRegression(&linearmodel.LassoAutoOptions{
			Lambdas:         o.Regularization,
			Iterations:      o.Iterations,
			Tolerance:       o.Tolerance,
			FitIntercept:    true,
			Parallelization: o.Parallelization,
		})
	}
}

func (o *Options) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	p := newLinePrinter(w, prefix, indent)
	o.tablePrint(p, indentGrowth)
	return p.err
}

func (o *Options) tablePrint(p *linePrinter, depth int) {
	p.printf(depth, "Solver: %s    Regularization: %.3f    Growth: %s\n", o.Solver, o.Regularization, o.GrowthType)
	o.SeasonalityOptions.tablePrint(p, depth)
	o.ChangepointOptions.tablePrint(p, depth)
	if o.WeekendOptions.Enabled {
		p.printf(depth, "Weekends: Before: %s, After: %s\n", o.WeekendOptions.DurBefore, o.WeekendOptions.DurAfter)
	} else {
		p.printf(depth, "Weekends: None\n")
	}
	if len(o.HolidayOptions.Holidays) > 0 {
		p.printf(depth, "Holidays: %v\n", o.HolidayOptions.Holidays)
	}
	o.EventOptions.tablePrint(p, depth)
}
