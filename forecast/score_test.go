package forecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScores(t *testing.T) {
	nan := math.NaN()
	testData := map[string]struct {
		predicted []float64
		actual    []float64
		expected  *Scores
		err       error
	}{
		"perfect": {
			[]float64{1, 2, 3}, []float64{1, 2, 3},
			&Scores{MSE: 0, MAPE: 0, R2: 1}, nil,
		},
		"off by one": {
			[]float64{2, 3, 4}, []float64{1, 2, 4},
			&Scores{MSE: 2.0 / 3.0, MAPE: 1.5 / 3.0, R2: 1 - 2.0/(14.0/3.0)}, nil,
		},
		"nan skipped": {
			[]float64{1, 2, nan, 3}, []float64{1, 2, 5, nan},
			&Scores{MSE: 0, MAPE: 0, R2: 1}, nil,
		},
		"zero actual skipped in mape": {
			[]float64{1, 2}, []float64{0, 2},
			&Scores{MSE: 0.5, MAPE: 0, R2: 0.5}, nil,
		},
		"length mismatch": {
			[]float64{1}, []float64{1, 2}, nil, ErrResLenMismatch,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := NewScores(td.predicted, td.actual)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.InDelta(t, td.expected.MSE, res.MSE, 1e-9, "mse")
			assert.InDelta(t, td.expected.MAPE, res.MAPE, 1e-9, "mape")
			assert.InDelta(t, td.expected.R2, res.R2, 1e-9, "r2")
		})
	}
}
