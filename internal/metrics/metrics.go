// Package metrics exposes detection summaries in the Prometheus text exposition format so they
// can be picked up by a node exporter textfile collector.
package metrics

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	outlier "github.com/aouyang1/go-outlier"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const (
	Namespace   = "outlier"
	LabelSeries = "series"
)

// Metric family names
const (
	PointsTotal     = Namespace + "_points_total"
	ScoredTotal     = Namespace + "_scored_points_total"
	OutliersTotal   = Namespace + "_outliers_total"
	OutlierRatio    = Namespace + "_outlier_ratio"
	MaxScore        = Namespace + "_max_score"
	MeanScore       = Namespace + "_mean_score"
	LastScore       = Namespace + "_last_score"
	LastObservation = Namespace + "_last_observation_timestamp_seconds"
)

func gauge(name, help, series string, val float64, ts time.Time) *dto.MetricFamily {
	typ := dto.MetricType_GAUGE
	labelName := LabelSeries
	m := &dto.Metric{
		Label: []*dto.LabelPair{{Name: &labelName, Value: &series}},
		Gauge: &dto.Gauge{Value: &val},
	}
	if !ts.IsZero() {
		ms := ts.UnixMilli()
		m.TimestampMs = &ms
	}
	return &dto.MetricFamily{
		Name:   &name,
		Help:   &help,
		Type:   &typ,
		Metric: []*dto.Metric{m},
	}
}

// Families converts the detection results of a series into gauge metric families
func Families(series string, res *outlier.Results) []*dto.MetricFamily {
	sum := res.Summary()
	families := []*dto.MetricFamily{
		gauge(PointsTotal, "Number of points in the last detection.", series, float64(sum.Total), time.Time{}),
		gauge(ScoredTotal, "Number of points with an observed value in the last detection.", series, float64(sum.Scored), time.Time{}),
		gauge(OutliersTotal, "Number of points flagged as outliers in the last detection.", series, float64(sum.Outliers), time.Time{}),
		gauge(OutlierRatio, "Ratio of outliers to scored points in the last detection.", series, sum.OutlierRatio, time.Time{}),
		gauge(MaxScore, "Largest outlier score in the last detection.", series, sum.MaxScore, time.Time{}),
		gauge(MeanScore, "Mean outlier score in the last detection.", series, sum.MeanScore, time.Time{}),
	}

	// the latest scored point describes the current state of the series
	for i := res.Len() - 1; i >= 0; i-- {
		if i >= len(res.Score) || math.IsNaN(res.Score[i]) {
			continue
		}
		families = append(families,
			gauge(LastScore, "Outlier score of the latest scored point.", series, res.Score[i], res.T[i]),
			gauge(LastObservation, "Timestamp of the latest scored point.", series, float64(res.T[i].Unix()), time.Time{}),
		)
		break
	}
	return families
}

// WriteText writes metric families sorted by name in the text exposition format
func WriteText(w io.Writer, families []*dto.MetricFamily) error {
	sorted := append([]*dto.MetricFamily(nil), families...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].GetName() < sorted[j].GetName()
	})
	for _, mf := range sorted {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("unable to encode metric family %s, %w", mf.GetName(), err)
		}
	}
	return nil
}

// ReadText parses a text exposition into metric families keyed by name
func ReadText(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil {
		return nil, fmt.Errorf("unable to parse metrics text, %w", err)
	}
	return mfs, nil
}

// WriteFile atomically replaces path with the metrics of a detection so collectors never read a
// partial file
func WriteFile(path, series string, res *outlier.Results) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("unable to create metrics file, %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteText(tmp, Families(series, res)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to close metrics file, %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// Value returns the gauge value of the series within a metric family
func Value(mf *dto.MetricFamily, series string) (float64, bool) {
	for _, m := range mf.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == LabelSeries && lp.GetValue() == series {
				return m.GetGauge().GetValue(), true
			}
		}
	}
	return 0, false
}
