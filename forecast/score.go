package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

var ErrResLenMismatch = errors.New("predicted and actual have different lengths")

// Scores are the goodness of fit measures of a forecast against its training data
type Scores struct {
	MSE  float64 `json:"mean_squared_error"`
	MAPE float64 `json:"mean_average_percent_error"`
	R2   float64 `json:"r_squared"`
}

// NewScores computes every fit score over the pairs of predicted and actual values
func NewScores(predicted, actual []float64) (*Scores, error) {
	if len(predicted) != len(actual) {
		return nil, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}
	mse, _ := MSE(predicted, actual)
	mape, _ := MAPE(predicted, actual)
	r2, _ := RSquared(predicted, actual)
	return &Scores{MSE: mse, MAPE: mape, R2: r2}, nil
}

// validPairs returns the predicted and actual values where neither is NaN
func validPairs(predicted, actual []float64) ([]float64, []float64, error) {
	if len(predicted) != len(actual) {
		return nil, nil, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}
	p := make([]float64, 0, len(predicted))
	a := make([]float64, 0, len(actual))
	for i, act := range actual {
		if math.IsNaN(act) || math.IsNaN(predicted[i]) {
			continue
		}
		p = append(p, predicted[i])
		a = append(a, act)
	}
	return p, a, nil
}

// MSE is mean((y-yhat)^2) ignoring NaN pairs. 0 is a perfect fit.
func MSE(predicted, actual []float64) (float64, error) {
	p, a, err := validPairs(predicted, actual)
	if err != nil || len(a) == 0 {
		return 0, err
	}
	sq := make([]float64, len(a))
	for i := range a {
		sq[i] = (a[i] - p[i]) * (a[i] - p[i])
	}
	return stat.Mean(sq, nil), nil
}

// MAPE is mean(abs((y-yhat)/y)) ignoring NaN pairs and zero actual values. 0 is a perfect fit.
func MAPE(predicted, actual []float64) (float64, error) {
	p, a, err := validPairs(predicted, actual)
	if err != nil {
		return 0, err
	}
	pct := make([]float64, 0, len(a))
	for i := range a {
		if a[i] == 0 {
			continue
		}
		pct = append(pct, math.Abs((a[i]-p[i])/a[i]))
	}
	if len(pct) == 0 {
		return 0, nil
	}
	return stat.Mean(pct, nil), nil
}

// RSquared is the coefficient of determination ignoring NaN pairs. A flat or empty actual series
// has nothing left to explain and scores 1.
func RSquared(predicted, actual []float64) (float64, error) {
	p, a, err := validPairs(predicted, actual)
	if err != nil {
		return 0, err
	}
	if len(a) == 0 {
		return 1.0, nil
	}
	r2 := stat.RSquaredFrom(p, a, nil)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		return 1.0, nil
	}
	return r2, nil
}
