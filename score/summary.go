package score

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates a batch of scoring results
type Summary struct {
	Total        int     `json:"total"`
	Scored       int     `json:"scored"`
	Outliers     int     `json:"outliers"`
	OutlierRatio float64 `json:"outlier_ratio"`
	MaxScore     float64 `json:"max_score"`
	MeanScore    float64 `json:"mean_score"`
}

// Summarize computes counts and score statistics over the scored results. Unscored results only
// contribute to the total.
func Summarize(results []Result) Summary {
	sum := Summary{Total: len(results)}

	scores := make([]float64, 0, len(results))
	for _, r := range results {
		if !r.Scored {
			continue
		}
		scores = append(scores, r.Score)
		if r.IsOutlier {
			sum.Outliers++
		}
	}
	sum.Scored = len(scores)
	if sum.Scored == 0 {
		return sum
	}

	sum.OutlierRatio = float64(sum.Outliers) / float64(sum.Scored)
	sum.MaxScore = floats.Max(scores)
	sum.MeanScore = stat.Mean(scores, nil)
	return sum
}
