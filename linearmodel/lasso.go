package linearmodel

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultLambda     = 1.0
	DefaultIterations = 1000
	DefaultTolerance  = 1e-4
)

// LassoOptions represents input options to run the Lasso Regression
type LassoOptions struct {
	// Lambda represents the L1 multiplier, controlling the regularization. Must be non-negative. 0.0
	// converges to Ordinary Least Squares (OLS).
	Lambda float64 `json:"lambda" yaml:"lambda"`

	// Iterations is the maximum number of times the fit loops through training all coefficients.
	Iterations int `json:"iterations" yaml:"iterations"`

	// Tolerance is the smallest coefficient change on each iteration to determine when to stop iterating.
	Tolerance float64 `json:"tolerance" yaml:"tolerance"`

	// FitIntercept adds a constant 1.0 feature as the first column if set to true
	FitIntercept bool `json:"fit_intercept" yaml:"fit_intercept"`
}

// Validate runs basic validation on Lasso options
func (l *LassoOptions) Validate() (*LassoOptions, error) {
	if l == nil {
		l = NewDefaultLassoOptions()
	}

	if l.Lambda < 0 {
		return nil, ErrNegativeLambda
	}
	if l.Iterations < 0 {
		return nil, ErrNegativeIterations
	}
	if l.Tolerance < 0 {
		return nil, ErrNegativeTolerance
	}
	return l, nil
}

// NewDefaultLassoOptions returns a default set of Lasso Regression options
func NewDefaultLassoOptions() *LassoOptions {
	return &LassoOptions{
		Lambda:       DefaultLambda,
		Iterations:   DefaultIterations,
		Tolerance:    DefaultTolerance,
		FitIntercept: true,
	}
}

// design holds the column major training data shared across lasso fits
type design struct {
	xcols [][]float64
	xdot  []float64
	y     []float64
}

func newDesign(x, y mat.Matrix) *design {
	m, n := x.Dims()
	d := &design{
		xcols: make([][]float64, n),
		xdot:  make([]float64, n),
		y:     mat.Col(nil, 0, y),
	}
	for j := 0; j < n; j++ {
		d.xcols[j] = mat.Col(make([]float64, m), j, x)
		d.xdot[j] = floats.Dot(d.xcols[j], d.xcols[j])
	}
	return d
}

// coordinateDescent minimizes the lasso loss returning the coefficients for each design column
func (d *design) coordinateDescent(lambda float64, iterations int, tolerance float64) []float64 {
	m := len(d.y)
	n := len(d.xcols)

	beta := make([]float64, n)
	residual := make([]float64, m)
	copy(residual, d.y)

	for i := 0; i < iterations; i++ {
		maxCoef := 0.0
		maxUpdate := 0.0

		for j := 0; j < n; j++ {
			// all zero column such as an event outside of the training window
			if d.xdot[j] == 0 {
				continue
			}
			betaCurr := beta[j]
			if i != 0 && betaCurr == 0 {
				continue
			}

			obsCol := d.xcols[j]
			num := floats.Dot(obsCol, residual)
			betaNext := SoftThreshold(num/d.xdot[j]+betaCurr, lambda/d.xdot[j])

			if delta := betaNext - betaCurr; delta != 0 {
				floats.AddScaled(residual, -delta, obsCol)
				maxUpdate = math.Max(maxUpdate, math.Abs(delta))
			}
			maxCoef = math.Max(maxCoef, math.Abs(betaNext))
			beta[j] = betaNext
		}

		if maxUpdate <= tolerance*maxCoef {
			break
		}
	}
	return beta
}

// LassoRegression computes the lasso regression using coordinate descent. lambda = 0 converges to OLS
type LassoRegression struct {
	opt *LassoOptions

	coef      []float64
	intercept float64
}

// NewLassoRegression initializes a Lasso model ready for fitting
func NewLassoRegression(opt *LassoOptions) (*LassoRegression, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &LassoRegression{
		opt: opt,
	}, nil
}

// Fit the model according to the given training data
func (l *LassoRegression) Fit(x, y mat.Matrix) error {
	if l.opt == nil {
		return ErrNoOptions
	}
	if err := validateTraining(x, y); err != nil {
		return err
	}
	if l.opt.FitIntercept {
		x = withIntercept(x)
	}

	beta := newDesign(x, y).coordinateDescent(l.opt.Lambda, l.opt.Iterations, l.opt.Tolerance)
	l.intercept, l.coef = splitIntercept(beta, l.opt.FitIntercept)
	return nil
}

// Predict using the Lasso model
func (l *LassoRegression) Predict(x mat.Matrix) ([]float64, error) {
	if l.opt == nil {
		return nil, ErrNoOptions
	}
	if l.coef == nil {
		return nil, ErrNotFit
	}
	return predict(x, l.intercept, l.coef, l.opt.FitIntercept)
}

// Score computes the coefficient of determination of the prediction
func (l *LassoRegression) Score(x, y mat.Matrix) (float64, error) {
	return score(l, x, y)
}

// Intercept returns the computed intercept if FitIntercept is set to true. Defaults to 0.0 if not set.
func (l *LassoRegression) Intercept() float64 {
	return l.intercept
}

// Coef returns a slice of the trained coefficients in the same order of the training feature Matrix by column.
func (l *LassoRegression) Coef() []float64 {
	c := make([]float64, len(l.coef))
	copy(c, l.coef)
	return c
}

// SoftThreshold returns 0.0 if the magnitude of x is less than or equal to gamma, otherwise shrinks x
// towards zero by gamma
func SoftThreshold(x, gamma float64) float64 {
	res := math.Max(0, math.Abs(x)-gamma)
	if math.Signbit(x) {
		return -res
	}
	return res
}

func splitIntercept(beta []float64, fitIntercept bool) (float64, []float64) {
	if fitIntercept {
		return beta[0], beta[1:]
	}
	return 0.0, beta
}

// LassoAutoOptions represents input options to run the Lasso Regression over several regularization
// parameters, keeping the best fit
type LassoAutoOptions struct {
	Lambdas      []float64 `json:"lambdas" yaml:"lambdas"`
	Iterations   int       `json:"iterations" yaml:"iterations"`
	Tolerance    float64   `json:"tolerance" yaml:"tolerance"`
	FitIntercept bool      `json:"fit_intercept" yaml:"fit_intercept"`

	// Parallelization sets how many fits to run in parallel. More will increase memory and compute usage.
	Parallelization int `json:"parallelization" yaml:"parallelization"`
}

// Validate runs basic validation on Lasso Auto options
func (l *LassoAutoOptions) Validate() (*LassoAutoOptions, error) {
	if l == nil {
		l = NewDefaultLassoAutoOptions()
	}

	if len(l.Lambdas) == 0 {
		return nil, ErrNoLambdas
	}
	for _, lambda := range l.Lambdas {
		if lambda < 0.0 {
			return nil, ErrNegativeLambda
		}
	}
	if l.Iterations < 0 {
		return nil, ErrNegativeIterations
	}
	if l.Tolerance < 0 {
		return nil, ErrNegativeTolerance
	}
	if l.Parallelization <= 0 || l.Parallelization > len(l.Lambdas) {
		l.Parallelization = len(l.Lambdas)
	}
	return l, nil
}

// NewDefaultLassoAutoOptions returns a default set of Lasso Auto Regression options
func NewDefaultLassoAutoOptions() *LassoAutoOptions {
	return &LassoAutoOptions{
		Lambdas:         []float64{DefaultLambda},
		Iterations:      DefaultIterations,
		Tolerance:       DefaultTolerance,
		FitIntercept:    true,
		Parallelization: 1,
	}
}

// LassoAutoRegression fits a lasso regression per lambda and keeps the one with the highest
// coefficient of determination
type LassoAutoRegression struct {
	opt *LassoAutoOptions

	scoreMu    sync.Mutex
	bestScore  float64
	bestLambda float64
	coef       []float64
	intercept  float64
}

// NewLassoAutoRegression initializes a Lasso model ready for fitting using automated lambda selection
func NewLassoAutoRegression(opt *LassoAutoOptions) (*LassoAutoRegression, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &LassoAutoRegression{
		opt:       opt,
		bestScore: math.Inf(-1),
	}, nil
}

// Fit the model according to the given training data
func (l *LassoAutoRegression) Fit(x, y mat.Matrix) error {
	if l.opt == nil {
		return ErrNoOptions
	}
	if err := validateTraining(x, y); err != nil {
		return err
	}
	if l.opt.FitIntercept {
		x = withIntercept(x)
	}
	d := newDesign(x, y)

	l.bestScore = math.Inf(-1)
	l.coef = nil

	sem := make(chan struct{}, l.opt.Parallelization)
	var wg sync.WaitGroup
	var errMu sync.Mutex
	var errs []error
	for _, lambda := range l.opt.Lambdas {
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() {
				wg.Done()
				<-sem
			}()
			if err := l.runLasso(d, x, lambda); err != nil {
				slog.Error("unable to fit lasso regression", "lambda", lambda, "error", err.Error())
				errMu.Lock()
				errs = append(errs, err)
				errMu.Unlock()
			}
		}()
	}
	wg.Wait()

	if l.coef == nil {
		return fmt.Errorf("no lasso fit succeeded, %w", errors.Join(errs...))
	}
	return nil
}

func (l *LassoAutoRegression) runLasso(d *design, x mat.Matrix, lambda float64) error {
	beta := d.coordinateDescent(lambda, l.opt.Iterations, l.opt.Tolerance)

	res, err := predict(x, 0, beta, false)
	if err != nil {
		return err
	}
	r2 := rSquared(res, d.y)

	l.scoreMu.Lock()
	defer l.scoreMu.Unlock()
	if l.coef == nil || r2 > l.bestScore || (r2 == l.bestScore && lambda < l.bestLambda) {
		l.bestScore = r2
		l.bestLambda = lambda
		l.intercept, l.coef = splitIntercept(beta, l.opt.FitIntercept)
	}
	return nil
}

// Predict using the best Lasso model
func (l *LassoAutoRegression) Predict(x mat.Matrix) ([]float64, error) {
	if l.opt == nil {
		return nil, ErrNoOptions
	}
	if l.coef == nil {
		return nil, ErrNotFit
	}
	return predict(x, l.intercept, l.coef, l.opt.FitIntercept)
}

// Score computes the coefficient of determination of the prediction
func (l *LassoAutoRegression) Score(x, y mat.Matrix) (float64, error) {
	return score(l, x, y)
}

// Intercept returns the computed intercept if FitIntercept is set to true. Defaults to 0.0 if not set.
func (l *LassoAutoRegression) Intercept() float64 {
	if l == nil {
		return 0.0
	}
	return l.intercept
}

// Coef returns a slice of the trained coefficients in the same order of the training feature Matrix by column.
func (l *LassoAutoRegression) Coef() []float64 {
	if l == nil || l.coef == nil {
		return nil
	}
	c := make([]float64, len(l.coef))
	copy(c, l.coef)
	return c
}

// Lambda returns the regularization parameter of the best fit
func (l *LassoAutoRegression) Lambda() float64 {
	return l.bestLambda
}
