package timedataset

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
)

// GenerateT generates n time points ending at the minute floored result of nowFunc
func GenerateT(n int, interval time.Duration, nowFunc func() time.Time) []time.Time {
	end := nowFunc().UTC().Truncate(time.Minute)
	start := end.Add(-time.Duration(n) * interval)
	t := make([]time.Time, n)
	for i := range t {
		t[i] = start.Add(time.Duration(i) * interval)
	}
	return t
}

// Series is a slice of values supporting chained in place transformations for building
// synthetic data
type Series []float64

// Add adds src to the series element wise
func (s Series) Add(src Series) Series {
	floats.Add(s, src)
	return s
}

// SetConst overwrites values in [start, end) with val
func (s Series) SetConst(t []time.Time, val float64, start, end time.Time) Series {
	for i := range s {
		if !t[i].Before(start) && t[i].Before(end) {
			s[i] = val
		}
	}
	return s
}

// MaskWithWeekend zeroes out every weekday value
func (s Series) MaskWithWeekend(t []time.Time) Series {
	for i := range s {
		if wd := t[i].Weekday(); wd != time.Saturday && wd != time.Sunday {
			s[i] = 0
		}
	}
	return s
}

// MaskWithTimeRange zeroes out every value outside of [start, end]
func (s Series) MaskWithTimeRange(start, end time.Time, t []time.Time) Series {
	for i := range s {
		if t[i].Before(start) || t[i].After(end) {
			s[i] = 0
		}
	}
	return s
}

// GenerateConstY returns a series of n constant values
func GenerateConstY(n int, val float64) Series {
	y := make(Series, n)
	for i := range y {
		y[i] = val
	}
	return y
}

// phase returns the angle in radians of t for a harmonic of the period
func phase(t time.Time, periodSec, order, timeOffset float64) float64 {
	return 2.0 * math.Pi * order / periodSec * (float64(t.Unix()) + timeOffset)
}

// GenerateWaveY returns a sine wave of the given amplitude, period in seconds, harmonic order
// and phase offset in seconds
func GenerateWaveY(t []time.Time, amp, periodSec, order, timeOffset float64) Series {
	y := make(Series, len(t))
	for i, tPnt := range t {
		y[i] = amp * math.Sin(phase(tPnt, periodSec, order, timeOffset))
	}
	return y
}

// GenerateNoise returns gaussian noise whose scale itself oscillates with the given wave
// parameters. A nil rng uses the global source.
func GenerateNoise(t []time.Time, rng *rand.Rand, noiseScale, amp, periodSec, order, timeOffset float64) Series {
	norm := rand.NormFloat64
	if rng != nil {
		norm = rng.NormFloat64
	}

	y := make(Series, len(t))
	for i, tPnt := range t {
		scale := noiseScale + amp*math.Sin(phase(tPnt, periodSec, order, timeOffset))
		y[i] = norm() * scale
	}
	return y
}

// GenerateChange returns a level shift of bias plus a slope per minute starting at chpt
func GenerateChange(t []time.Time, chpt time.Time, bias, slope float64) Series {
	y := make(Series, len(t))
	for i, tPnt := range t {
		if tPnt.Before(chpt) {
			continue
		}
		y[i] = bias + slope*tPnt.Sub(chpt).Minutes()
	}
	return y
}

// GeneratePulseY returns a pulse train of the given amplitude where duty controls the width
// of each pulse
func GeneratePulseY(t []time.Time, amp, periodSec, order, timeOffset, duty float64) Series {
	cutoff := 1.0 - duty/2.0
	y := make(Series, len(t))
	for i, tPnt := range t {
		if math.Cos(phase(tPnt, periodSec, order, timeOffset)) >= cutoff {
			y[i] = amp
		}
	}
	return y
}

// GenerateSpikes returns a series of zeros with amp placed at each of the provided indexes.
// Out of range indexes are ignored.
func GenerateSpikes(n int, amp float64, idxs ...int) Series {
	y := make(Series, n)
	for _, idx := range idxs {
		if idx >= 0 && idx < n {
			y[idx] = amp
		}
	}
	return y
}
