package timedataset

import (
	"math"
	"time"
)

// TimeSlice is a sorted slice of time points
type TimeSlice []time.Time

// StartTime returns the first time point or the zero time if empty
func (t TimeSlice) StartTime() time.Time {
	var startTime time.Time
	if len(t) < 1 {
		return startTime
	}
	return t[0]
}

// EndTime returns the last time point or the zero time if empty
func (t TimeSlice) EndTime() time.Time {
	var lastTime time.Time
	if len(t) < 1 {
		return lastTime
	}

	lastTime = t[len(t)-1]
	return lastTime
}

// EstimateFreq returns the most common interval between consecutive points. Ties resolve to
// the smallest interval.
func (t TimeSlice) EstimateFreq() (time.Duration, error) {
	if len(t) < 2 {
		return 0, ErrCannotInferFreq
	}

	frequencies := make(map[time.Duration]int)
	for i := 1; i < len(t); i++ {
		delta := t[i].Sub(t[i-1])
		frequencies[delta] += 1
	}

	var maxCnt int
	maxDelta := time.Duration(math.MaxInt64)

	for delta, cnt := range frequencies {
		if cnt > maxCnt || (cnt == maxCnt && delta < maxDelta) {
			maxCnt = cnt
			maxDelta = delta
		}
	}
	return maxDelta, nil
}

// Horizon generates n time points after the end of the slice spaced by the interval
func (t TimeSlice) Horizon(n int, interval time.Duration) []time.Time {
	end := t.EndTime()
	horizon := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		horizon = append(horizon, end.Add(time.Duration(i+1)*interval))
	}
	return horizon
}
