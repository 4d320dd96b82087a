package outlier

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/aouyang1/go-outlier/timedataset"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// missingValue is rendered by echarts as a gap in the line
const missingValue = "-"

func timeAxis(t []time.Time) []string {
	axis := make([]string, len(t))
	for i, tp := range t {
		axis[i] = tp.Format(time.RFC3339)
	}
	return axis
}

func lineData(y []float64) []opts.LineData {
	data := make([]opts.LineData, len(y))
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			data[i] = opts.LineData{Value: missingValue}
			continue
		}
		data[i] = opts.LineData{Value: v}
	}
	return data
}

// LineTSeries generates an echart multi-line chart for some arbitrary time/value combination. Each
// series in y must have the same length as the input time slice. NaN values are left as gaps.
func LineTSeries(title string, seriesName []string, t []time.Time, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)
	line.SetXAxis(timeAxis(t))
	for i, name := range seriesName {
		if i >= len(y) {
			break
		}
		line.AddSeries(name, lineData(y[i]))
	}
	return line
}

// LineDetect generates an echart line chart of the observed values against the forecast, upper
// and lower values with flagged outliers overlaid as points
func LineDetect(title string, res *Results) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)

	outliers := make([]opts.ScatterData, len(res.T))
	for i := range res.T {
		outliers[i] = opts.ScatterData{Value: missingValue}
		if res.IsOutlier[i] && !math.IsNaN(res.Observed[i]) {
			outliers[i] = opts.ScatterData{Value: res.Observed[i]}
		}
	}
	scatter := charts.NewScatter()
	scatter.SetXAxis(timeAxis(res.T)).AddSeries("Outlier", outliers)

	line.SetXAxis(timeAxis(res.T)).
		AddSeries("Actual", lineData(res.Observed)).
		AddSeries("Forecast", lineData(res.Forecast)).
		AddSeries("Upper", lineData(res.Upper)).
		AddSeries("Lower", lineData(res.Lower))
	line.Overlap(scatter)
	return line
}

// PlotDetect renders an html page with the detection results and outlier scores
func PlotDetect(w io.Writer, res *Results) error {
	if res == nil || res.Len() == 0 {
		return ErrEmptyTimeDataset
	}
	page := components.NewPage()
	page.AddCharts(
		LineDetect("Outlier Detection", res),
		LineTSeries("Outlier Score", []string{"Score"}, res.T, [][]float64{res.Score}),
	)
	return page.Render(w)
}

// PlotOpts sets the horizon to forecast out. By default will use 10% of the training size with
// the most common interval between training points.
type PlotOpts struct {
	HorizonCnt      int
	HorizonInterval time.Duration
}

// PlotFit uses the Apache Echarts library to render an html page showing the resulting fit with
// a forecast horizon, the series components and the fit residual
func (d *Detector) PlotFit(w io.Writer, opt *PlotOpts) error {
	td := d.TrainingData()
	if td == nil || d.fitResults == nil {
		return ErrEmptyTimeDataset
	}

	horizonCnt := len(td.T) / 10
	horizonInterval, err := timedataset.TimeSlice(td.T).EstimateFreq()
	if err != nil {
		return fmt.Errorf("%w, %w", ErrCannotInferInterval, err)
	}
	if opt != nil {
		if opt.HorizonCnt > 0 {
			horizonCnt = opt.HorizonCnt
		}
		if opt.HorizonInterval > 0 {
			horizonInterval = opt.HorizonInterval
		}
	}
	horizonCnt = max(horizonCnt, 1)

	horizon := timedataset.TimeSlice(td.T).Horizon(horizonCnt, horizonInterval)
	forecastRes, err := d.Predict(horizon)
	if err != nil {
		return fmt.Errorf("unable to predict with horizon, %w", err)
	}

	t := append(append([]time.Time{}, td.T...), horizon...)
	full := concatResults(d.fitResults, forecastRes)

	zpad := make([]float64, horizonCnt)
	for i := range zpad {
		zpad[i] = math.NaN()
	}
	residuals := append(d.Residuals(), zpad...)

	page := components.NewPage()
	page.AddCharts(
		LineDetect("Forecast Fit", full),
		LineTSeries(
			"Forecast Components",
			[]string{"Trend", "Seasonality", "Event"},
			t,
			[][]float64{
				full.SeriesComponents.Trend,
				full.SeriesComponents.Seasonality,
				full.SeriesComponents.Event,
			},
		),
		LineTSeries("Forecast Residual", []string{"Residual"}, t, [][]float64{residuals}),
	)
	return page.Render(w)
}

// PlotFit renders the fit of the detector, see Detector.PlotFit
func PlotFit(w io.Writer, d *Detector, opt *PlotOpts) error {
	if d == nil {
		return ErrNotFit
	}
	return d.PlotFit(w, opt)
}

func concatResults(a, b *Results) *Results {
	r := &Results{
		T:         append(append([]time.Time{}, a.T...), b.T...),
		Forecast:  append(append([]float64{}, a.Forecast...), b.Forecast...),
		Upper:     append(append([]float64{}, a.Upper...), b.Upper...),
		Lower:     append(append([]float64{}, a.Lower...), b.Lower...),
		Observed:  append(append([]float64{}, a.Observed...), b.Observed...),
		Score:     append(append([]float64{}, a.Score...), b.Score...),
		IsOutlier: append(append([]bool{}, a.IsOutlier...), b.IsOutlier...),
	}
	r.SeriesComponents.Trend = append(append([]float64{}, a.SeriesComponents.Trend...), b.SeriesComponents.Trend...)
	r.SeriesComponents.Seasonality = append(append([]float64{}, a.SeriesComponents.Seasonality...), b.SeriesComponents.Seasonality...)
	r.SeriesComponents.Event = append(append([]float64{}, a.SeriesComponents.Event...), b.SeriesComponents.Event...)
	return r
}
