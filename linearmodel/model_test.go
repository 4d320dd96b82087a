package linearmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func testModel(t *testing.T, model Model, x, y mat.Matrix, intercept float64, coef []float64, tol float64) {
	err := model.Fit(x, y)
	require.Nil(t, err)

	assert.InDelta(t, intercept, model.Intercept(), tol, "intercept")
	assert.InDeltaSlice(t, coef, model.Coef(), tol, "coefficients")

	r2, err := model.Score(x, y)
	require.Nil(t, err)
	assert.InDelta(t, 1.0, r2, tol, "score")
}

// exact linear target y = 2 + 3*x0 + 4*x1
var (
	linearX = [][]float64{
		{0, 0},
		{3, 5},
		{9, 20},
		{12, 6},
		{15, 10},
	}
	linearY = []float64{2, 31, 109, 62, 87}
)

func TestNewDenseFromArray(t *testing.T) {
	testData := map[string]struct {
		x   [][]float64
		err error
	}{
		"valid":        {[][]float64{{1, 2}, {3, 4}}, nil},
		"empty":        {nil, ErrNoTrainingMatrix},
		"col mismatch": {[][]float64{{1, 2}, {3}}, ErrColMismatch},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := NewDenseFromArray(td.x)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, 4.0, res.At(1, 1))
		})
	}
}

func TestModelErrors(t *testing.T) {
	x, err := NewDenseFromArray(linearX)
	require.Nil(t, err)
	short := mat.NewDense(2, 1, []float64{1, 2})
	wide := mat.NewDense(1, 3, []float64{1, 2, 3})

	ols, err := NewOLSRegression(nil)
	require.Nil(t, err)
	lasso, err := NewLassoRegression(nil)
	require.Nil(t, err)
	auto, err := NewLassoAutoRegression(nil)
	require.Nil(t, err)

	for name, model := range map[string]Model{"ols": ols, "lasso": lasso, "lasso auto": auto} {
		t.Run(name, func(t *testing.T) {
			_, err := model.Predict(x)
			assert.ErrorIs(t, err, ErrNotFit)

			assert.ErrorIs(t, model.Fit(nil, short), ErrNoTrainingMatrix)
			assert.ErrorIs(t, model.Fit(x, nil), ErrNoTargetMatrix)
			assert.ErrorIs(t, model.Fit(x, short), ErrTargetLenMismatch)

			require.Nil(t, model.Fit(x, mat.NewDense(len(linearY), 1, linearY)))
			_, err = model.Predict(wide)
			assert.ErrorIs(t, err, ErrFeatureLenMismatch)
			_, err = model.Predict(nil)
			assert.ErrorIs(t, err, ErrNoDesignMatrix)
		})
	}
}
