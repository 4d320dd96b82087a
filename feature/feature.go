// Package feature describes the labelled regressors used to fit a forecast along with the
// generators for their values.
package feature

import "strings"

// FeatureType is the kind of regressor a feature represents
type FeatureType int

const (
	FeatureTypeChangepoint FeatureType = iota
	FeatureTypeSeasonality
	FeatureTypeTime
	FeatureTypeEvent
	FeatureTypeGrowth
)

func (f FeatureType) String() string {
	switch f {
	case FeatureTypeChangepoint:
		return "changepoint"
	case FeatureTypeSeasonality:
		return "seasonality"
	case FeatureTypeTime:
		return "time"
	case FeatureTypeEvent:
		return "event"
	case FeatureTypeGrowth:
		return "growth"
	}
	return "unknown"
}

// Feature is a labelled regressor. String must be unique across all features in a Set.
type Feature interface {
	String() string
	Get(string) (string, bool)
	Type() FeatureType
	Decode() map[string]string
}

// label looks up a case insensitive label from the decoded feature labels
func label(labels map[string]string, name string) (string, bool) {
	v, exists := labels[strings.ToLower(name)]
	return v, exists
}
