package outlier

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/aouyang1/go-outlier/score"
	"github.com/aouyang1/go-outlier/timedataset"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResults() *Results {
	r := newResults(4)
	for i := range r.T {
		r.T[i] = testStart.Add(time.Duration(i) * time.Minute)
		r.Forecast[i] = 15.0
		r.Lower[i] = 10.0
		r.Upper[i] = 20.0
	}
	r.setObserved([]float64{15.0, 25.0, math.NaN(), 10.0})
	return r
}

func TestResultsScore(t *testing.T) {
	r := testResults()
	scorer, err := score.NewScorer(nil)
	require.Nil(t, err)
	require.Nil(t, r.score(context.Background(), scorer))

	assert.Equal(t, -5.0, r.Score[0])
	assert.False(t, r.IsOutlier[0])
	assert.Equal(t, 5.0, r.Score[1])
	assert.True(t, r.IsOutlier[1])
	assert.True(t, math.IsNaN(r.Score[2]))
	assert.False(t, r.IsOutlier[2])
	assert.Equal(t, 0.0, r.Score[3])
	assert.False(t, r.IsOutlier[3])

	assert.Equal(t, []int{1}, r.Outliers())

	sum := r.Summary()
	assert.Equal(t, score.Summary{
		Total:        4,
		Scored:       3,
		Outliers:     1,
		OutlierRatio: 1.0 / 3.0,
		MaxScore:     5.0,
		MeanScore:    0.0,
	}, sum)
}

func TestPoints(t *testing.T) {
	r := testResults()
	points := Points(r)
	require.Len(t, points, 4)
	assert.Equal(t, score.Point{
		T:         r.T[1],
		Observed:  25.0,
		Predicted: 15.0,
		Lower:     10.0,
		Upper:     20.0,
	}, points[1])
	assert.False(t, points[2].HasObserved())

	assert.Nil(t, Points(nil))
}

func TestResultsRecords(t *testing.T) {
	r := testResults()
	records := r.Records()
	require.Len(t, records, 4)
	assert.Nil(t, records[2].Observed)
	assert.Nil(t, records[0].Score)
	require.NotNil(t, records[1].Observed)
	assert.Equal(t, 25.0, *records[1].Observed)

	// NaN values must not break json encoding
	out, err := json.Marshal(records)
	require.Nil(t, err)
	assert.Contains(t, string(out), `"observed":null`)

	_, err = json.Marshal(r)
	assert.Error(t, err)
}

func TestWriteResultsCSV(t *testing.T) {
	r := testResults()
	scorer, err := score.NewScorer(nil)
	require.Nil(t, err)
	require.Nil(t, r.score(context.Background(), scorer))

	testData := map[string]struct {
		opt            *timedataset.CSVOptions
		comma          string
		expectedHeader string
		expectedRow    string
	}{
		"default": {
			nil,
			",",
			"time,observed,forecast,lower,upper,score,is_outlier",
			"2024-03-04T00:01:00Z,25,15,10,20,5,true",
		},
		"unix renamed": {
			&timedataset.CSVOptions{TimeColumn: "ts", TimeLayout: timedataset.TimeLayoutUnix, Comma: ";"},
			";",
			"ts;observed;forecast;lower;upper;score;is_outlier",
			"1709510460;25;15;10;20;5;true",
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.Nil(t, WriteResultsCSV(&buf, r, td.opt))

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			require.Len(t, lines, 5)
			assert.Equal(t, td.expectedHeader, lines[0])
			assert.Equal(t, td.expectedRow, lines[2])
			// missing observed and score are empty cells
			assert.Contains(t, lines[3], td.comma+td.comma+"15")
		})
	}
}
