package forecast

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/aouyang1/go-outlier/feature"
	"github.com/goccy/go-json"
)

var ErrUnknownFeatureType = errors.New("unknown feature type")

// Model represents a serializable format of a forecast storing the forecast options, fit scores,
// and coefficients
type Model struct {
	TrainStartTime time.Time `json:"train_start_time"`
	TrainEndTime   time.Time `json:"train_end_time"`
	Options        *Options  `json:"options"`
	Scores         *Scores   `json:"scores"`
	Weights        Weights   `json:"weights"`
}

// TablePrint writes a human readable summary of the model
func (m Model) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	p := newLinePrinter(w, prefix, indent)
	p.printf(indentGrowth, "Training Window: %s to %s\n", m.TrainStartTime, m.TrainEndTime)
	if m.Options != nil {
		m.Options.tablePrint(p, indentGrowth)
	}
	if m.Scores != nil {
		p.printf(indentGrowth, "Scores:\n")
		p.printf(indentGrowth+1, "MAPE: %.3f    MSE: %.3f    R2: %.3f\n", m.Scores.MAPE, m.Scores.MSE, m.Scores.R2)
	}
	if p.err != nil {
		return p.err
	}
	return m.Weights.tablePrint(p, indentGrowth)
}

// Weights stores the intercept and coefficients for the forecast model
type Weights struct {
	Intercept float64         `json:"intercept"`
	Coef      []FeatureWeight `json:"coefficients"`
}

// FeatureLabels returns all of the feature labels in the same order as the coefficients
func (w *Weights) FeatureLabels() ([]feature.Feature, error) {
	labels := make([]feature.Feature, 0, len(w.Coef))
	for _, fw := range w.Coef {
		feat, err := fw.ToFeature()
		if err != nil {
			return nil, err
		}
		labels = append(labels, feat)
	}
	return labels, nil
}

// Coefficients returns a slice copy of the coefficients ignoring the intercept.
func (w *Weights) Coefficients() []float64 {
	coef := make([]float64, 0, len(w.Coef))
	for _, fw := range w.Coef {
		coef = append(coef, fw.Value)
	}
	return coef
}

func (w Weights) tablePrint(p *linePrinter, depth int) error {
	rows := make([][]string, 0, len(w.Coef))
	for _, fw := range w.Coef {
		labels, err := json.Marshal(fw.Labels)
		if err != nil {
			return err
		}
		val := "..."
		if fw.Value != 0 {
			val = strconv.FormatFloat(fw.Value, 'f', 3, 64)
		}
		rows = append(rows, []string{fw.Type.String(), string(labels), val})
	}
	p.printf(depth, "Weights: intercept %.3f\n", w.Intercept)
	p.table(depth+1, []string{"Type", "Labels", "Value"}, rows)
	return p.err
}

// FeatureWeight represents a feature described with a type e.g. changepoint, labels and the value
type FeatureWeight struct {
	Labels map[string]string   `json:"labels"`
	Type   feature.FeatureType `json:"type"`
	Value  float64             `json:"value"`
}

func NewFeatureWeight(f feature.Feature, val float64) FeatureWeight {
	return FeatureWeight{
		Labels: f.Decode(),
		Type:   f.Type(),
		Value:  val,
	}
}

// ToFeature transforms the Type and Labels into a feature type
func (fw *FeatureWeight) ToFeature() (feature.Feature, error) {
	if fw == nil {
		return nil, ErrUnknownFeatureType
	}

	bytes, err := json.Marshal(fw.Labels)
	if err != nil {
		return nil, err
	}

	var feat feature.Feature
	switch fw.Type {
	case feature.FeatureTypeChangepoint:
		feat = new(feature.Changepoint)
	case feature.FeatureTypeSeasonality:
		feat = new(feature.Seasonality)
	case feature.FeatureTypeEvent:
		feat = new(feature.Event)
	case feature.FeatureTypeGrowth:
		feat = new(feature.Growth)
	default:
		return nil, fmt.Errorf("type %d, %w", fw.Type, ErrUnknownFeatureType)
	}
	if err := json.Unmarshal(bytes, feat); err != nil {
		return nil, err
	}
	return feat, nil
}
