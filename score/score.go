// Package score implements the threshold-distance outlier score. Each observed value is compared
// against the forecast uncertainty interval and given a signed distance to the nearest bound,
// negative when inside the interval and positive when outside.
package score

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrNoObserved      = errors.New("no observed value to score")
	ErrInvertedBounds  = errors.New("lower bound is greater than upper bound")
	ErrNaNBounds       = errors.New("lower or upper bound is NaN")
	ErrUnknownBoundary = errors.New("unknown boundary convention")
)

// Boundary decides whether an observation sitting exactly on a bound is considered inside
// the uncertainty interval.
type Boundary string

const (
	// BoundaryInclusive treats the bounds as part of the interval so a point on a bound
	// scores 0 and is not an outlier.
	BoundaryInclusive Boundary = "inclusive"

	// BoundaryExclusive uses strict comparisons so a point on a bound scores 0 but is
	// flagged as an outlier. Read Result.IsOutlier rather than the sign of the score.
	BoundaryExclusive Boundary = "exclusive"
)

// ParseBoundary converts a config string into a Boundary. An empty string maps to the
// inclusive default.
func ParseBoundary(s string) (Boundary, error) {
	switch Boundary(s) {
	case "", BoundaryInclusive:
		return BoundaryInclusive, nil
	case BoundaryExclusive:
		return BoundaryExclusive, nil
	}
	return "", fmt.Errorf("%q, %w", s, ErrUnknownBoundary)
}

// Point is a single forecast record. Observed is NaN when there is no measurement for the
// timestamp, e.g. a pure future prediction.
type Point struct {
	T         time.Time `json:"time"`
	Observed  float64   `json:"observed"`
	Predicted float64   `json:"predicted"`
	Lower     float64   `json:"lower"`
	Upper     float64   `json:"upper"`
}

// HasObserved reports whether the point carries a measured value
func (p Point) HasObserved() bool {
	return !math.IsNaN(p.Observed)
}

// Valid checks the interval precondition
func (p Point) Valid() error {
	if math.IsNaN(p.Lower) || math.IsNaN(p.Upper) {
		return ErrNaNBounds
	}
	if p.Lower > p.Upper {
		return fmt.Errorf("lower %.4f, upper %.4f, %w", p.Lower, p.Upper, ErrInvertedBounds)
	}
	return nil
}

// Result is the score of a single point. IsOutlier is the authoritative flag: with the exclusive
// boundary a point on a bound is an outlier with a Score of 0, so Score > 0 only implies an
// outlier, it is not equivalent.
type Result struct {
	T         time.Time `json:"time"`
	Score     float64   `json:"score"`
	IsOutlier bool      `json:"is_outlier"`
	Scored    bool      `json:"scored"`
}

// Score computes the outlier score with the inclusive boundary convention
func Score(p Point) (Result, error) {
	return ScoreWithBoundary(p, BoundaryInclusive)
}

// ScoreWithBoundary computes the signed distance of the observed value to the nearest
// interval bound.
func ScoreWithBoundary(p Point, b Boundary) (Result, error) {
	res := Result{T: p.T}
	if !p.HasObserved() {
		return res, ErrNoObserved
	}
	if err := p.Valid(); err != nil {
		return res, err
	}

	distLower := p.Observed - p.Lower
	distUpper := p.Upper - p.Observed

	var inside bool
	switch b {
	case BoundaryInclusive, "":
		inside = distLower >= 0 && distUpper >= 0
	case BoundaryExclusive:
		inside = distLower > 0 && distUpper > 0
	default:
		return res, fmt.Errorf("%q, %w", b, ErrUnknownBoundary)
	}

	nearest := math.Min(math.Abs(distLower), math.Abs(distUpper))
	res.Score = nearest
	if inside && nearest > 0 {
		res.Score = -nearest
	}
	res.IsOutlier = !inside
	res.Scored = true
	return res, nil
}
