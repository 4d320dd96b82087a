package outlier

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/aouyang1/go-outlier/forecast"
	"github.com/aouyang1/go-outlier/score"
	"github.com/aouyang1/go-outlier/timedataset"
)

// Results holds the forecast interval per timestamp and, after detection, the observed value,
// outlier score and outlier flag. Observed and Score are NaN where there is no measurement, which
// json cannot encode, so use Records for json output.
type Results struct {
	T         []time.Time `json:"time"`
	Forecast  []float64   `json:"forecast"`
	Upper     []float64   `json:"upper"`
	Lower     []float64   `json:"lower"`
	Observed  []float64   `json:"observed"`
	Score     []float64   `json:"score"`
	IsOutlier []bool      `json:"is_outlier"`

	SeriesComponents      forecast.Components `json:"series_components"`
	UncertaintyComponents forecast.Components `json:"uncertainty_components"`
}

func newResults(n int) *Results {
	r := &Results{
		T:         make([]time.Time, n),
		Forecast:  make([]float64, n),
		Upper:     make([]float64, n),
		Lower:     make([]float64, n),
		Observed:  make([]float64, n),
		Score:     make([]float64, n),
		IsOutlier: make([]bool, n),
	}
	for i := 0; i < n; i++ {
		r.Observed[i] = math.NaN()
		r.Score[i] = math.NaN()
	}
	return r
}

// Len returns the number of timestamps in the results
func (r *Results) Len() int {
	return len(r.T)
}

func (r *Results) setObserved(y []float64) {
	copy(r.Observed, y)
}

func (r *Results) score(ctx context.Context, scorer *score.Scorer) error {
	scored, err := scorer.ScorePoints(ctx, Points(r))
	if err != nil {
		return fmt.Errorf("unable to score observed values, %w", err)
	}
	for i, s := range scored {
		if !s.Scored {
			r.Score[i] = math.NaN()
			r.IsOutlier[i] = false
			continue
		}
		r.Score[i] = s.Score
		r.IsOutlier[i] = s.IsOutlier
	}
	return nil
}

// Points converts results into forecast points suitable for the scorer
func Points(r *Results) []score.Point {
	if r == nil {
		return nil
	}
	points := make([]score.Point, len(r.T))
	for i := range r.T {
		observed := math.NaN()
		if i < len(r.Observed) {
			observed = r.Observed[i]
		}
		points[i] = score.Point{
			T:         r.T[i],
			Observed:  observed,
			Predicted: r.Forecast[i],
			Lower:     r.Lower[i],
			Upper:     r.Upper[i],
		}
	}
	return points
}

// ScoreResults returns the per point scoring results with Scored false where no observed value
// was present
func (r *Results) ScoreResults() []score.Result {
	res := make([]score.Result, len(r.T))
	for i := range r.T {
		res[i].T = r.T[i]
		if i >= len(r.Score) || math.IsNaN(r.Score[i]) {
			continue
		}
		res[i].Score = r.Score[i]
		res[i].IsOutlier = r.IsOutlier[i]
		res[i].Scored = true
	}
	return res
}

// Summary aggregates the outlier counts and scores of the results
func (r *Results) Summary() score.Summary {
	return score.Summarize(r.ScoreResults())
}

// Outliers returns the indices of all points flagged as outliers
func (r *Results) Outliers() []int {
	var idxs []int
	for i, isOutlier := range r.IsOutlier {
		if isOutlier {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// Record is a single row of results. Missing values are nil so records can be encoded as json.
type Record struct {
	T         time.Time `json:"time"`
	Observed  *float64  `json:"observed"`
	Forecast  *float64  `json:"forecast"`
	Lower     *float64  `json:"lower"`
	Upper     *float64  `json:"upper"`
	Score     *float64  `json:"score"`
	IsOutlier bool      `json:"is_outlier"`
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Records converts the results into row oriented records
func (r *Results) Records() []Record {
	records := make([]Record, len(r.T))
	for i := range r.T {
		records[i] = Record{
			T:         r.T[i],
			Observed:  nullable(r.Observed[i]),
			Forecast:  nullable(r.Forecast[i]),
			Lower:     nullable(r.Lower[i]),
			Upper:     nullable(r.Upper[i]),
			Score:     nullable(r.Score[i]),
			IsOutlier: r.IsOutlier[i],
		}
	}
	return records
}

var resultsHeader = []string{"observed", "forecast", "lower", "upper", "score", "is_outlier"}

// WriteResultsCSV writes one row per timestamp using the time column and layout of the csv
// options. NaN values are written as empty cells.
func WriteResultsCSV(w io.Writer, r *Results, opt *timedataset.CSVOptions) error {
	if opt == nil {
		opt = timedataset.NewDefaultCSVOptions()
	}
	timeCol := opt.TimeColumn
	if timeCol == "" {
		timeCol = timedataset.DefaultTimeColumn
	}

	writer := csv.NewWriter(w)
	if opt.Comma != "" {
		writer.Comma = []rune(opt.Comma)[0]
	}
	if err := writer.Write(append([]string{timeCol}, resultsHeader...)); err != nil {
		return err
	}

	formatFloat := func(v float64) string {
		if math.IsNaN(v) {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	for i := range r.T {
		row := []string{
			opt.FormatTime(r.T[i]),
			formatFloat(r.Observed[i]),
			formatFloat(r.Forecast[i]),
			formatFloat(r.Lower[i]),
			formatFloat(r.Upper[i]),
			formatFloat(r.Score[i]),
			strconv.FormatBool(r.IsOutlier[i]),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
