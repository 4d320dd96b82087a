package timedataset

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	testData := map[string]struct {
		input    string
		opt      *CSVOptions
		expected *TimeDataset
		err      error
	}{
		"empty": {
			input: "",
			err:   ErrEmptyCSV,
		},
		"header only": {
			input: "time,value\n",
			err:   ErrEmptyCSV,
		},
		"missing value column": {
			input: "time,latency\n2024-01-01T00:00:00Z,1\n",
			err:   ErrMissingColumn,
		},
		"default columns": {
			input: "time,value\n2024-01-01T00:00:00Z,1.5\n2024-01-01T01:00:00Z,2.5\n",
			expected: &TimeDataset{
				T: []time.Time{
					time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
					time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC),
				},
				Y: []float64{1.5, 2.5},
			},
		},
		"renamed columns unsorted with duplicates": {
			input: "host,ts,latency_ms\n" +
				"a,1700000120,3\n" +
				"a,1700000000,1\n" +
				"b,1700000060,2\n" +
				"b,1700000060,4\n",
			opt: &CSVOptions{TimeColumn: "ts", ValueColumn: "latency_ms", TimeLayout: TimeLayoutUnix},
			expected: &TimeDataset{
				T: []time.Time{
					time.Unix(1700000000, 0).UTC(),
					time.Unix(1700000060, 0).UTC(),
					time.Unix(1700000120, 0).UTC(),
				},
				Y: []float64{1, 3, 3},
			},
		},
		"custom layout and separator": {
			input: "Date Time;T (degC)\n01.01.2009 00:10:00;-8.02\n01.01.2009 00:20:00;-8.41\n",
			opt: &CSVOptions{
				TimeColumn:  "Date Time",
				ValueColumn: "T (degC)",
				TimeLayout:  "02.01.2006 15:04:05",
				Comma:       ";",
			},
			expected: &TimeDataset{
				T: []time.Time{
					time.Date(2009, 1, 1, 0, 10, 0, 0, time.UTC),
					time.Date(2009, 1, 1, 0, 20, 0, 0, time.UTC),
				},
				Y: []float64{-8.02, -8.41},
			},
		},
		"bad time": {
			input: "time,value\nyesterday,1\n",
			err:   nil,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := ReadCSV(strings.NewReader(td.input), td.opt)
			if td.expected == nil {
				require.Error(t, err)
				if td.err != nil {
					assert.ErrorIs(t, err, td.err)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, td.expected, res)
		})
	}
}

func TestReadCSVBadValue(t *testing.T) {
	input := "time,value\n2024-01-01T00:00:00Z,\n2024-01-01T01:00:00Z,n/a\n2024-01-01T02:00:00Z,3\n"
	res, err := ReadCSV(strings.NewReader(input), nil)
	require.NoError(t, err)
	require.Len(t, res.Y, 3)
	assert.True(t, math.IsNaN(res.Y[0]))
	assert.True(t, math.IsNaN(res.Y[1]))
	assert.Equal(t, 3.0, res.Y[2])
}

func TestWriteCSVRoundTrip(t *testing.T) {
	td := &TimeDataset{
		T: []time.Time{
			time.Unix(1700000000, 0).UTC(),
			time.Unix(1700000060, 0).UTC(),
		},
		Y: []float64{1.25, math.NaN()},
	}
	opt := &CSVOptions{TimeColumn: "ts", ValueColumn: "v", TimeLayout: TimeLayoutUnix}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, td, opt))
	assert.Equal(t, "ts,v\n1700000000,1.25\n1700000060,\n", buf.String())

	res, err := ReadCSV(&buf, opt)
	require.NoError(t, err)
	assert.Equal(t, td.T, res.T)
	assert.Equal(t, 1.25, res.Y[0])
	assert.True(t, math.IsNaN(res.Y[1]))
}
