// Package linearmodel contains the linear regression solvers used to fit forecast features
package linearmodel

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoOptions          = errors.New("no initialized model options")
	ErrTargetLenMismatch  = errors.New("target length does not match target rows")
	ErrNoTrainingMatrix   = errors.New("no training matrix")
	ErrNoTargetMatrix     = errors.New("no target matrix")
	ErrNoDesignMatrix     = errors.New("no design matrix for inference")
	ErrFeatureLenMismatch = errors.New("number of features does not match number of model coefficients")
	ErrNegativeLambda     = errors.New("negative lambda")
	ErrNegativeIterations = errors.New("negative iterations")
	ErrNegativeTolerance  = errors.New("negative tolerance")
	ErrNoLambdas          = errors.New("no lambdas provided to fit with")
	ErrNotFit             = errors.New("model has not been fit")
	ErrColMismatch        = errors.New("column size mismatch")
	ErrUnderdetermined    = errors.New("fewer observations than features without a ridge penalty")
)

// Model is a fitted linear regression of a single target column
type Model interface {
	Fit(x, y mat.Matrix) error
	Predict(x mat.Matrix) ([]float64, error)
	Score(x, y mat.Matrix) (float64, error)
	Intercept() float64
	Coef() []float64
}

// NewDenseFromArray builds a dense matrix from row major observations
func NewDenseFromArray(x [][]float64) (*mat.Dense, error) {
	m := len(x)
	if m == 0 {
		return nil, ErrNoTrainingMatrix
	}

	n := len(x[0])
	data := make([]float64, 0, m*n)
	for i, row := range x {
		if len(row) != n {
			return nil, fmt.Errorf("at row %d, %w", i, ErrColMismatch)
		}
		data = append(data, row...)
	}
	return mat.NewDense(m, n, data), nil
}

// withIntercept returns x with a constant 1.0 column prepended
func withIntercept(x mat.Matrix) *mat.Dense {
	m, n := x.Dims()
	res := mat.NewDense(m, n+1, nil)
	for i := 0; i < m; i++ {
		res.Set(i, 0, 1.0)
		for j := 0; j < n; j++ {
			res.Set(i, j+1, x.At(i, j))
		}
	}
	return res
}

func validateTraining(x, y mat.Matrix) error {
	if x == nil {
		return ErrNoTrainingMatrix
	}
	if y == nil {
		return ErrNoTargetMatrix
	}
	m, _ := x.Dims()
	ym, _ := y.Dims()
	if ym != m {
		return fmt.Errorf("training data has %d rows and target has %d row, %w", m, ym, ErrTargetLenMismatch)
	}
	return nil
}

// predict multiplies the design matrix by the coefficients, prepending the intercept column when
// fitIntercept is set
func predict(x mat.Matrix, intercept float64, coef []float64, fitIntercept bool) ([]float64, error) {
	if x == nil {
		return nil, ErrNoDesignMatrix
	}
	m, n := x.Dims()
	if n != len(coef) {
		return nil, fmt.Errorf("got %d features in design matrix, but expected %d, %w", n, len(coef), ErrFeatureLenMismatch)
	}
	if n == 0 {
		res := make([]float64, m)
		if fitIntercept {
			for i := range res {
				res[i] = intercept
			}
		}
		return res, nil
	}

	var res mat.VecDense
	res.MulVec(x, mat.NewVecDense(n, coef))
	out := make([]float64, m)
	for i := range out {
		out[i] = res.AtVec(i)
		if fitIntercept {
			out[i] += intercept
		}
	}
	return out, nil
}
