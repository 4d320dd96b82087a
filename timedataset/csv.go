package timedataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultTimeColumn  = "time"
	DefaultValueColumn = "value"

	TimeLayoutUnix   = "unix"
	TimeLayoutUnixMs = "unix_ms"
)

var (
	ErrMissingColumn = errors.New("column not found in csv header")
	ErrEmptyCSV      = errors.New("csv has no rows")
)

// CSVOptions configures how a time series is read from or written to csv. The time column is
// parsed with TimeLayout which is either a Go time layout, "unix" for epoch seconds or
// "unix_ms" for epoch milliseconds.
type CSVOptions struct {
	TimeColumn  string `json:"time_column" yaml:"time_column"`
	ValueColumn string `json:"value_column" yaml:"value_column"`
	TimeLayout  string `json:"time_layout" yaml:"time_layout"`
	Timezone    string `json:"timezone" yaml:"timezone"`
	Comma       string `json:"comma" yaml:"comma"`
}

// NewDefaultCSVOptions reads "time" and "value" columns with RFC3339 timestamps
func NewDefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		TimeColumn:  DefaultTimeColumn,
		ValueColumn: DefaultValueColumn,
		TimeLayout:  time.RFC3339,
		Timezone:    "UTC",
		Comma:       ",",
	}
}

func (o *CSVOptions) validate() (*CSVOptions, *time.Location, error) {
	if o == nil {
		o = NewDefaultCSVOptions()
	}
	def := NewDefaultCSVOptions()
	if o.TimeColumn == "" {
		o.TimeColumn = def.TimeColumn
	}
	if o.ValueColumn == "" {
		o.ValueColumn = def.ValueColumn
	}
	if o.TimeLayout == "" {
		o.TimeLayout = def.TimeLayout
	}
	if o.Comma == "" {
		o.Comma = def.Comma
	}
	loc := time.UTC
	if o.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(o.Timezone)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to load timezone %q, %w", o.Timezone, err)
		}
	}
	return o, loc, nil
}

func (o *CSVOptions) parseTime(s string, loc *time.Location) (time.Time, error) {
	switch o.TimeLayout {
	case TimeLayoutUnix:
		sec, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return time.Time{}, err
		}
		whole, frac := math.Modf(sec)
		return time.Unix(int64(whole), int64(frac*1e9)).In(loc), nil
	case TimeLayoutUnixMs:
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, err
		}
		return time.UnixMilli(ms).In(loc), nil
	}
	return time.ParseInLocation(o.TimeLayout, s, loc)
}

// FormatTime renders a timestamp with the configured time layout, defaulting to RFC3339
func (o *CSVOptions) FormatTime(t time.Time) string {
	if o == nil || o.TimeLayout == "" {
		return t.Format(time.RFC3339)
	}
	switch o.TimeLayout {
	case TimeLayoutUnix:
		return strconv.FormatInt(t.Unix(), 10)
	case TimeLayoutUnixMs:
		return strconv.FormatInt(t.UnixMilli(), 10)
	}
	return t.Format(o.TimeLayout)
}

// ReadCSV loads a univariate series from csv. Rows are sorted by time and values sharing a
// timestamp are averaged. Empty or unparseable values are kept as NaN so they can be skipped
// during fitting.
func ReadCSV(r io.Reader, opt *CSVOptions) (*TimeDataset, error) {
	opt, loc, err := opt.validate()
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.Comma = []rune(opt.Comma)[0]
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyCSV
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read csv header, %w", err)
	}

	tIdx, yIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case opt.TimeColumn:
			tIdx = i
		case opt.ValueColumn:
			yIdx = i
		}
	}
	if tIdx < 0 {
		return nil, fmt.Errorf("%q, %w", opt.TimeColumn, ErrMissingColumn)
	}
	if yIdx < 0 {
		return nil, fmt.Errorf("%q, %w", opt.ValueColumn, ErrMissingColumn)
	}

	type row struct {
		t time.Time
		y float64
	}
	var rows []row
	var badValues int
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unable to read csv line %d, %w", line, err)
		}

		tPnt, err := opt.parseTime(strings.TrimSpace(record[tIdx]), loc)
		if err != nil {
			return nil, fmt.Errorf("unable to parse time on line %d, %w", line, err)
		}

		val, err := strconv.ParseFloat(strings.TrimSpace(record[yIdx]), 64)
		if err != nil {
			badValues++
			val = math.NaN()
		}
		rows = append(rows, row{tPnt, val})
	}
	if len(rows) == 0 {
		return nil, ErrEmptyCSV
	}
	if badValues > 0 {
		slog.Warn("csv values could not be parsed and were set to NaN", "count", badValues, "column", opt.ValueColumn)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].t.Before(rows[j].t)
	})

	t := make([]time.Time, 0, len(rows))
	y := make([]float64, 0, len(rows))
	var dupes int
	for i := 0; i < len(rows); {
		j := i + 1
		for j < len(rows) && rows[j].t.Equal(rows[i].t) {
			j++
		}
		vals := make([]float64, 0, j-i)
		for _, rw := range rows[i:j] {
			vals = append(vals, rw.y)
		}
		t = append(t, rows[i].t)
		y = append(y, meanIgnoreNaN(vals))
		dupes += j - i - 1
		i = j
	}
	if dupes > 0 {
		slog.Warn("csv contained duplicate timestamps which were averaged", "count", dupes)
	}

	return NewUnivariateDataset(t, y)
}

func meanIgnoreNaN(vals []float64) float64 {
	var sum float64
	var cnt int
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		cnt++
	}
	if cnt == 0 {
		return math.NaN()
	}
	return sum / float64(cnt)
}

// WriteCSV writes the dataset using the configured column names and time layout. NaN values are
// written as empty cells.
func WriteCSV(w io.Writer, td *TimeDataset, opt *CSVOptions) error {
	opt, _, err := opt.validate()
	if err != nil {
		return err
	}
	if td == nil {
		return ErrNoTrainingData
	}

	writer := csv.NewWriter(w)
	writer.Comma = []rune(opt.Comma)[0]
	if err := writer.Write([]string{opt.TimeColumn, opt.ValueColumn}); err != nil {
		return err
	}
	for i := range td.T {
		val := ""
		if !math.IsNaN(td.Y[i]) {
			val = strconv.FormatFloat(td.Y[i], 'f', -1, 64)
		}
		if err := writer.Write([]string{opt.FormatTime(td.T[i]), val}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
