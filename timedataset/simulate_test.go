package timedataset

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// a monday so the generated week starts on a weekday
var simNow = func() time.Time { return time.Date(2024, 1, 8, 0, 0, 30, 0, time.UTC) }

func TestGenerateT(t *testing.T) {
	testData := map[string]struct {
		n             int
		interval      time.Duration
		expectedFirst time.Time
		expectedLast  time.Time
	}{
		"daily": {
			7, 24 * time.Hour,
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC),
		},
		"minutely": {
			60, time.Minute,
			time.Date(2024, 1, 7, 23, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 7, 23, 59, 0, 0, time.UTC),
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res := GenerateT(td.n, td.interval, simNow)
			assert.Len(t, res, td.n)
			assert.Equal(t, td.expectedFirst, res[0])
			assert.Equal(t, td.expectedLast, res[td.n-1])
		})
	}
}

func TestSeriesChaining(t *testing.T) {
	tSeries := GenerateT(7, 24*time.Hour, simNow)
	tuesday := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	thursday := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)

	s := GenerateConstY(7, 1).Add(GenerateConstY(7, 4))
	assert.Equal(t, Series{5, 5, 5, 5, 5, 5, 5}, s)

	s.SetConst(tSeries, -1, tuesday, thursday)
	assert.Equal(t, Series{5, -1, -1, 5, 5, 5, 5}, s)

	weekend := GenerateConstY(7, 2).MaskWithWeekend(tSeries)
	assert.Equal(t, Series{0, 0, 0, 0, 0, 2, 2}, weekend)

	window := GenerateConstY(7, 3).MaskWithTimeRange(tuesday, thursday, tSeries)
	assert.Equal(t, Series{0, 3, 3, 3, 0, 0, 0}, window)
}

func TestGenerateChange(t *testing.T) {
	tSeries := GenerateT(4, time.Minute, simNow)
	s := GenerateChange(tSeries, tSeries[1], 10, 0.5)
	assert.Equal(t, Series{0, 10, 10.5, 11}, s)
}

func TestGenerateSpikes(t *testing.T) {
	s := GenerateSpikes(5, -4.0, 0, 4, 5, -2)
	assert.Equal(t, Series{-4, 0, 0, 0, -4}, s)
}

func TestGenerateNoiseDeterministic(t *testing.T) {
	tSeries := GenerateT(32, time.Minute, simNow)

	a := GenerateNoise(tSeries, rand.New(rand.NewPCG(9, 4)), 1.0, 0.5, 3600.0, 1.0, 0.0)
	b := GenerateNoise(tSeries, rand.New(rand.NewPCG(9, 4)), 1.0, 0.5, 3600.0, 1.0, 0.0)
	assert.Equal(t, a, b)

	flat := GenerateNoise(tSeries, rand.New(rand.NewPCG(9, 4)), 0.0, 0.0, 3600.0, 1.0, 0.0)
	assert.Equal(t, GenerateConstY(32, 0), flat)
}

func TestGeneratePulseY(t *testing.T) {
	// starts 2024-01-02, an even number of days since the epoch, so a two day pulse starts high
	tSeries := GenerateT(6, 24*time.Hour, simNow)
	s := GeneratePulseY(tSeries, 3.0, 2*86400.0, 1.0, 0.0, 1.0)
	assert.Equal(t, Series{3, 0, 3, 0, 3, 0}, s)

	// a one day offset flips the phase
	shifted := GeneratePulseY(tSeries, 3.0, 2*86400.0, 1.0, 86400.0, 1.0)
	assert.Equal(t, Series{0, 3, 0, 3, 0, 3}, shifted)
}
