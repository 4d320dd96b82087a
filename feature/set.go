package feature

import (
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Set is an ordered collection of feature values sharing the same length
type Set struct {
	m      int
	set    map[string][]float64
	labels []Feature
}

func NewSet() *Set {
	return &Set{
		set:    make(map[string][]float64),
		labels: make([]Feature, 0),
	}
}

// Len returns the number of observations per feature
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return s.m
}

// NumFeatures returns the number of features in the set
func (s *Set) NumFeatures() int {
	if s == nil {
		return 0
	}
	return len(s.labels)
}

// Labels returns the features in insertion order
func (s *Set) Labels() []Feature {
	if s == nil {
		return nil
	}
	return slices.Clone(s.labels)
}

// Set stores data for a feature, replacing any existing values. Features of differing lengths
// are zero padded to the longest one.
func (s *Set) Set(f Feature, data []float64) *Set {
	if s.set == nil {
		s.set = make(map[string][]float64)
	}
	name := f.String()
	if _, exists := s.set[name]; !exists {
		s.labels = append(s.labels, f)
	}
	s.set[name] = slices.Clone(data)

	if len(data) > s.m {
		s.m = len(data)
	}
	for k, v := range s.set {
		if len(v) < s.m {
			s.set[k] = append(v, make([]float64, s.m-len(v))...)
		}
	}
	return s
}

// Get returns the values of a feature
func (s *Set) Get(f Feature) ([]float64, bool) {
	if s == nil || s.set == nil {
		return nil, false
	}
	v, exists := s.set[f.String()]
	return v, exists
}

// Del removes a feature from the set
func (s *Set) Del(f Feature) *Set {
	name := f.String()
	if _, exists := s.set[name]; !exists {
		return s
	}
	delete(s.set, name)
	s.labels = slices.DeleteFunc(s.labels, func(l Feature) bool {
		return l.String() == name
	})
	if len(s.labels) == 0 {
		s.m = 0
	}
	return s
}

// Update copies every feature of other into the set
func (s *Set) Update(other *Set) *Set {
	if other == nil {
		return s
	}
	for _, f := range other.labels {
		s.Set(f, other.set[f.String()])
	}
	return s
}

// Copy returns a deep copy of the set
func (s *Set) Copy() *Set {
	return NewSet().Update(s)
}

// RemoveZeroOnlyFeatures drops features which are zero for every observation and returns them
func (s *Set) RemoveZeroOnlyFeatures() []Feature {
	var removed []Feature
	for _, f := range s.Labels() {
		if slices.ContainsFunc(s.set[f.String()], func(v float64) bool { return v != 0 }) {
			continue
		}
		s.Del(f)
		removed = append(removed, f)
	}
	return removed
}

// Matrix returns the observations by features design matrix. When intercept is set the first
// column is all ones. Returns nil for an empty set.
func (s *Set) Matrix(intercept bool) *mat.Dense {
	if s == nil || s.m == 0 || len(s.labels) == 0 {
		return nil
	}
	n := len(s.labels)
	offset := 0
	if intercept {
		n++
		offset = 1
	}

	obs := make([]float64, s.m*n)
	for i := 0; i < s.m; i++ {
		if intercept {
			obs[i*n] = 1.0
		}
		for j, f := range s.labels {
			obs[i*n+j+offset] = s.set[f.String()][i]
		}
	}
	return mat.NewDense(s.m, n, obs)
}
