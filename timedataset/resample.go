package timedataset

import (
	"errors"
	"math"
	"time"
)

var ErrInvalidBucketWidth = errors.New("resample bucket width must be positive")

// Resample averages the dataset into fixed width buckets aligned to the unix epoch. Each bucket is
// stamped with its start time. NaN values are ignored when averaging. If keepEmpty is set,
// buckets between the first and last point with no values are emitted as NaN, otherwise they are
// dropped.
func Resample(td *TimeDataset, width time.Duration, keepEmpty bool) (*TimeDataset, error) {
	if width <= 0 {
		return nil, ErrInvalidBucketWidth
	}
	if td == nil || len(td.T) == 0 {
		return nil, ErrNoTrainingData
	}
	if len(td.T) != len(td.Y) {
		return nil, ErrDatasetLenMismatch
	}

	loc := td.T[0].Location()

	var (
		tOut []time.Time
		yOut []float64

		currBucket int64
		sum        float64
		cnt        int
		started    bool
	)

	flush := func() {
		val := math.NaN()
		if cnt > 0 {
			val = sum / float64(cnt)
		}
		if cnt > 0 || keepEmpty {
			tOut = append(tOut, time.Unix(0, currBucket).In(loc))
			yOut = append(yOut, val)
		}
		sum = 0
		cnt = 0
	}

	for i, tPnt := range td.T {
		bucket := bucketStart(tPnt, width)
		if started && bucket < currBucket {
			return nil, ErrNonMontonic
		}
		if started && bucket != currBucket {
			flush()
			if keepEmpty {
				for next := currBucket + int64(width); next < bucket; next += int64(width) {
					tOut = append(tOut, time.Unix(0, next).In(loc))
					yOut = append(yOut, math.NaN())
				}
			}
		}
		currBucket = bucket
		started = true

		if math.IsNaN(td.Y[i]) {
			continue
		}
		sum += td.Y[i]
		cnt++
	}
	flush()

	return &TimeDataset{T: tOut, Y: yOut}, nil
}

func bucketStart(t time.Time, width time.Duration) int64 {
	ns := t.UnixNano()
	w := int64(width)
	rem := ns % w
	if rem < 0 {
		rem += w
	}
	return ns - rem
}
