package forecast

import (
	"io"
	"strconv"
	"time"

	"github.com/aouyang1/go-outlier/feature"
)

const DefaultAutoNumChangepoints = 10

// Changepoint describes a point in time that will change the ongoing trend. This will
// include both a bias and a slope feature when growth is enabled.
type Changepoint struct {
	T    time.Time `json:"time" yaml:"time"`
	Name string    `json:"name" yaml:"name"`
}

func NewChangepoint(name string, t time.Time) Changepoint {
	return Changepoint{T: t, Name: name}
}

// ChangepointOptions configures the changepoint fit to either use auto-detection
// by evenly placing N changepoints in the training window or a set of known changepoints.
// Auto-detection will generally require increasing the regularization parameter to remove
// changepoints that cause overfitting.
type ChangepointOptions struct {
	Changepoints        []Changepoint `json:"changepoints" yaml:"changepoints"`
	EnableGrowth        bool          `json:"enable_growth" yaml:"enable_growth"`
	Auto                bool          `json:"auto" yaml:"auto"`
	AutoNumChangepoints int           `json:"auto_num_changepoints" yaml:"auto_num_changepoints"`
}

// NewDefaultChangepointOptions generates a set of default changepoint options
func NewDefaultChangepointOptions() ChangepointOptions {
	return ChangepointOptions{
		AutoNumChangepoints: DefaultAutoNumChangepoints,
	}
}

// generateAutoChangepoints replaces the changepoints with evenly spaced ones across the training
// window excluding the window start
func (c *ChangepointOptions) generateAutoChangepoints(start, end time.Time) {
	if !c.Auto {
		return
	}
	if c.AutoNumChangepoints <= 0 {
		c.AutoNumChangepoints = DefaultAutoNumChangepoints
	}
	n := c.AutoNumChangepoints

	step := end.Sub(start) / time.Duration(n+1)
	chpts := make([]Changepoint, 0, n)
	for i := 1; i <= n; i++ {
		chpts = append(chpts, NewChangepoint("auto_"+strconv.Itoa(i), start.Add(step*time.Duration(i))))
	}
	c.Changepoints = chpts
}

// generateFeatures adds a bias and optional slope feature for each changepoint within the
// training window. The slope is 0 at the changepoint and 1 at the training end.
func (c ChangepointOptions) generateFeatures(t []time.Time, trainStart, trainEnd time.Time, feat *feature.Set) {
	for i, chpt := range c.Changepoints {
		if !chpt.T.After(trainStart) || !chpt.T.Before(trainEnd) {
			continue
		}
		name := chpt.Name
		if name == "" {
			name = strconv.Itoa(i)
		}

		delta := trainEnd.Sub(chpt.T).Seconds()
		bias := make([]float64, len(t))
		var slope []float64
		if c.EnableGrowth {
			slope = make([]float64, len(t))
		}
		for j, tPnt := range t {
			if tPnt.Before(chpt.T) {
				continue
			}
			bias[j] = 1.0
			if c.EnableGrowth {
				slope[j] = tPnt.Sub(chpt.T).Seconds() / delta
			}
		}

		feat.Set(feature.NewChangepoint(name, feature.ChangepointCompBias), bias)
		if c.EnableGrowth {
			feat.Set(feature.NewChangepoint(name, feature.ChangepointCompSlope), slope)
		}
	}
}

func (c ChangepointOptions) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	p := newLinePrinter(w, prefix, indent)
	c.tablePrint(p, indentGrowth)
	return p.err
}

func (c ChangepointOptions) tablePrint(p *linePrinter, depth int) {
	rows := make([][]string, 0, len(c.Changepoints))
	for _, chpt := range c.Changepoints {
		rows = append(rows, []string{chpt.Name, chpt.T.String()})
	}
	p.section(depth, "Changepoints", []string{"Name", "Datetime"}, rows)
}
