package score

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// MinParallelBatch is the smallest number of points handed to a single worker. Smaller inputs
// are scored inline.
const MinParallelBatch = 1024

// Options configures a Scorer
type Options struct {
	// Boundary selects whether points on a bound are considered inside the interval
	Boundary Boundary `json:"boundary" yaml:"boundary"`

	// Parallelization sets how many workers score batches concurrently. 0 or 1 scores inline.
	Parallelization int `json:"parallelization" yaml:"parallelization"`
}

// NewDefaultOptions returns inclusive, single worker scoring options
func NewDefaultOptions() *Options {
	return &Options{
		Boundary:        BoundaryInclusive,
		Parallelization: 1,
	}
}

// Validate fills in defaults and checks the boundary convention
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	b, err := ParseBoundary(string(o.Boundary))
	if err != nil {
		return nil, err
	}
	o.Boundary = b
	if o.Parallelization < 1 {
		o.Parallelization = 1
	}
	return o, nil
}

// Scorer applies the threshold-distance score over batches of forecast points
type Scorer struct {
	opt *Options
}

// NewScorer creates a scorer with the provided options. If none are provided a default is used.
func NewScorer(opt *Options) (*Scorer, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &Scorer{opt: opt}, nil
}

// Boundary returns the boundary convention used by the scorer
func (s *Scorer) Boundary() Boundary {
	return s.opt.Boundary
}

// ScorePoint scores a single point with the scorer boundary convention
func (s *Scorer) ScorePoint(p Point) (Result, error) {
	return ScoreWithBoundary(p, s.opt.Boundary)
}

// ScorePoints scores every point and returns results in input order. Points without an observed
// value are returned with Scored set to false. Any other scoring error aborts the batch.
func (s *Scorer) ScorePoints(ctx context.Context, points []Point) ([]Result, error) {
	results := make([]Result, len(points))

	workers := s.opt.Parallelization
	if maxWorkers := len(points) / MinParallelBatch; workers > maxWorkers {
		workers = maxWorkers
	}
	if workers <= 1 {
		if err := s.scoreRange(ctx, points, results, 0, len(points)); err != nil {
			return nil, err
		}
		return results, nil
	}

	batch := (len(points) + workers - 1) / workers

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for w := 0; w < workers; w++ {
		start := w * batch
		end := min(start+batch, len(points))
		if start >= end {
			break
		}
		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			errs[w] = s.scoreRange(ctx, points, results, start, end)
		}(w, start, end)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Scorer) scoreRange(ctx context.Context, points []Point, results []Result, start, end int) error {
	for i := start; i < end; i++ {
		if i%MinParallelBatch == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		res, err := ScoreWithBoundary(points[i], s.opt.Boundary)
		if errors.Is(err, ErrNoObserved) {
			results[i] = res
			continue
		}
		if err != nil {
			return fmt.Errorf("unable to score point %d at %s, %w", i, points[i].T, err)
		}
		results[i] = res
	}
	return nil
}
