package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSetPadding(t *testing.T) {
	a := NewEvent("a")
	b := NewEvent("b")
	s := NewSet().Set(a, []float64{1, 2}).Set(b, []float64{3, 4, 5})

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 2, s.NumFeatures())

	va, exists := s.Get(a)
	require.True(t, exists)
	assert.Equal(t, []float64{1, 2, 0}, va)

	s.Set(a, []float64{7, 8, 9})
	va, _ = s.Get(a)
	assert.Equal(t, []float64{7, 8, 9}, va)
	assert.Equal(t, []Feature{a, b}, s.Labels())
}

func TestSetDel(t *testing.T) {
	a := NewEvent("a")
	b := NewEvent("b")
	s := NewSet().Set(a, []float64{1}).Set(b, []float64{2})

	s.Del(a)
	assert.Equal(t, []Feature{b}, s.Labels())
	_, exists := s.Get(a)
	assert.False(t, exists)

	s.Del(NewEvent("missing"))
	s.Del(b)
	assert.Equal(t, NewSet(), s)
}

func TestSetUpdateCopy(t *testing.T) {
	a := NewEvent("a")
	b := NewEvent("b")
	s := NewSet().Set(a, []float64{1, 2})
	other := NewSet().Set(b, []float64{3, 4})

	c := s.Copy()
	s.Update(other)
	assert.Equal(t, []Feature{a, b}, s.Labels())
	assert.Equal(t, []Feature{a}, c.Labels())

	s.Update(nil)
	assert.Equal(t, 2, s.NumFeatures())
}

func TestSetRemoveZeroOnlyFeatures(t *testing.T) {
	a := NewEvent("a")
	b := NewEvent("b")
	c := NewEvent("c")
	s := NewSet().
		Set(a, []float64{0, 0, 0}).
		Set(b, []float64{0, 1, 0}).
		Set(c, []float64{0, 0, 0})

	removed := s.RemoveZeroOnlyFeatures()
	assert.Equal(t, []Feature{a, c}, removed)
	assert.Equal(t, []Feature{b}, s.Labels())
}

func TestSetMatrix(t *testing.T) {
	testData := map[string]struct {
		set       *Set
		intercept bool
		expected  *mat.Dense
	}{
		"nil set":   {nil, false, nil},
		"empty set": {&Set{}, true, nil},
		"no intercept": {
			NewSet().Set(NewEvent("a"), []float64{1, 2}).Set(NewEvent("b"), []float64{3, 4}),
			false,
			mat.NewDense(2, 2, []float64{1, 3, 2, 4}),
		},
		"intercept": {
			NewSet().Set(NewEvent("a"), []float64{1, 2}),
			true,
			mat.NewDense(2, 2, []float64{1, 1, 1, 2}),
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res := td.set.Matrix(td.intercept)
			if td.expected == nil {
				assert.Nil(t, res)
				return
			}
			assert.True(t, mat.Equal(td.expected, res))
		})
	}
}
