package linearmodel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// singularTol is the smallest diagonal of R, relative to the largest, treated as a solvable pivot
const singularTol = 1e-10

// OLSOptions represents input options to run the OLS Regression
type OLSOptions struct {
	// FitIntercept adds a constant 1.0 feature as the first column if set to true
	FitIntercept bool `json:"fit_intercept" yaml:"fit_intercept"`

	// Lambda applies a ridge penalty to every coefficient except the intercept. 0.0 is plain least
	// squares.
	Lambda float64 `json:"lambda" yaml:"lambda"`
}

// Validate runs basic validation on OLS options
func (o *OLSOptions) Validate() (*OLSOptions, error) {
	if o == nil {
		o = NewDefaultOLSOptions()
	}
	if o.Lambda < 0 {
		return nil, ErrNegativeLambda
	}
	return o, nil
}

// NewDefaultOLSOptions returns a default set of OLS Regression options
func NewDefaultOLSOptions() *OLSOptions {
	return &OLSOptions{
		FitIntercept: true,
	}
}

// OLSRegression computes ordinary least squares using QR factorization
type OLSRegression struct {
	opt       *OLSOptions
	coef      []float64
	intercept float64
}

// NewOLSRegression initializes an ordinary least squares model ready for fitting
func NewOLSRegression(opt *OLSOptions) (*OLSRegression, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &OLSRegression{
		opt: opt,
	}, nil
}

// Fit the model according to the given training data. Coefficients of linearly dependent columns
// are set to zero.
func (o *OLSRegression) Fit(x, y mat.Matrix) error {
	if o.opt == nil {
		return ErrNoOptions
	}
	if err := validateTraining(x, y); err != nil {
		return err
	}

	if o.opt.FitIntercept {
		x = withIntercept(x)
	}
	m, n := x.Dims()

	// ridge penalty as extra rows of sqrt(lambda) * I with zero targets
	rows := m
	if o.opt.Lambda > 0 {
		rows += n
	}
	if rows < n {
		return fmt.Errorf("%d observations for %d features, %w", m, n, ErrUnderdetermined)
	}
	xa := mat.NewDense(rows, n, nil)
	xa.Slice(0, m, 0, n).(*mat.Dense).Copy(x)
	ya := make([]float64, rows)
	for i := 0; i < m; i++ {
		ya[i] = y.At(i, 0)
	}
	if o.opt.Lambda > 0 {
		penalty := math.Sqrt(o.opt.Lambda)
		for j := 0; j < n; j++ {
			if o.opt.FitIntercept && j == 0 {
				continue
			}
			xa.Set(m+j, j, penalty)
		}
	}

	qr := new(mat.QR)
	qr.Factorize(xa)

	q := new(mat.Dense)
	r := new(mat.Dense)
	qr.QTo(q)
	qr.RTo(r)

	yq := new(mat.Dense)
	yq.Mul(mat.NewDense(1, rows, ya), q)

	maxDiag := 0.0
	for i := 0; i < n; i++ {
		maxDiag = math.Max(maxDiag, math.Abs(r.At(i, i)))
	}

	c := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		rii := r.At(i, i)
		if math.Abs(rii) <= singularTol*maxDiag {
			c[i] = 0
			continue
		}
		c[i] = yq.At(0, i)
		for j := i + 1; j < n; j++ {
			c[i] -= c[j] * r.At(i, j)
		}
		c[i] /= rii
	}

	if o.opt.FitIntercept {
		o.intercept = c[0]
		o.coef = c[1:]
	} else {
		o.coef = c
	}
	return nil
}

// Predict using the OLS model
func (o *OLSRegression) Predict(x mat.Matrix) ([]float64, error) {
	if o.opt == nil {
		return nil, ErrNoOptions
	}
	if o.coef == nil {
		return nil, ErrNotFit
	}
	return predict(x, o.intercept, o.coef, o.opt.FitIntercept)
}

// Score computes the coefficient of determination of the prediction
func (o *OLSRegression) Score(x, y mat.Matrix) (float64, error) {
	return score(o, x, y)
}

// Intercept returns the computed intercept if FitIntercept is set to true. Defaults to 0.0 if not set.
func (o *OLSRegression) Intercept() float64 {
	return o.intercept
}

// Coef returns a slice of the trained coefficients in the same order of the training feature Matrix by column.
func (o *OLSRegression) Coef() []float64 {
	c := make([]float64, len(o.coef))
	copy(c, o.coef)
	return c
}

func score(model Model, x, y mat.Matrix) (float64, error) {
	if x == nil {
		return 0.0, ErrNoDesignMatrix
	}
	if err := validateTraining(x, y); err != nil {
		return 0.0, err
	}

	res, err := model.Predict(x)
	if err != nil {
		return 0.0, err
	}

	return rSquared(res, mat.Col(nil, 0, y)), nil
}

// rSquared is the coefficient of determination, 1.0 for a constant target that is fit exactly
func rSquared(estimate, y []float64) float64 {
	r2 := stat.RSquaredFrom(estimate, y, nil)
	if math.IsNaN(r2) {
		return 1.0
	}
	return r2
}
