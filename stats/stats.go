// Package stats contains the robust statistics used while fitting a forecast
package stats

import (
	"errors"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

var ErrInvalidWindow = errors.New("window must be at least 2 and no larger than the series")

// DetectOutliers returns the indexes of values at or beyond the percentile fences widened by the
// tukey factor times the inner percentile range. NaN values are ignored.
func DetectOutliers(y []float64, lowerPerc, upperPerc, tukeyFactor float64) []int {
	lowerPerc = math.Max(lowerPerc, 0.0)
	upperPerc = math.Min(upperPerc, 1.0)
	tukeyFactor = math.Max(tukeyFactor, 0.0)

	sorted := make([]float64, 0, len(y))
	for _, v := range y {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 || lowerPerc >= upperPerc {
		return nil
	}
	slices.Sort(sorted)

	lower := stat.Quantile(lowerPerc, stat.Empirical, sorted, nil)
	upper := stat.Quantile(upperPerc, stat.Empirical, sorted, nil)
	innerRange := upper - lower
	lower -= innerRange * tukeyFactor
	upper += innerRange * tukeyFactor

	// a flat series has no spread to measure outliers against
	if innerRange == 0 {
		return nil
	}

	var outlierIdx []int
	for i, v := range y {
		if math.IsNaN(v) {
			continue
		}
		if v >= upper || v <= lower {
			outlierIdx = append(outlierIdx, i)
		}
	}
	return outlierIdx
}

// RollingStdDev computes the sample standard deviation of each full window over y. The output has
// len(y)-window+1 values where index i covers y[i:i+window].
func RollingStdDev(y []float64, window int) ([]float64, error) {
	if window < 2 || window > len(y) {
		return nil, ErrInvalidWindow
	}

	numWindows := len(y) - window + 1
	res := make([]float64, numWindows)
	for i := 0; i < numWindows; i++ {
		res[i] = stat.StdDev(y[i:i+window], nil)
	}
	return res, nil
}
