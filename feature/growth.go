package feature

import (
	"fmt"
	"time"
)

const (
	GrowthIntercept = "intercept"
	GrowthLinear    = "linear"
)

// Growth is a trend regressor spanning the whole series
type Growth struct {
	Name string `json:"name"`
}

func NewGrowth(name string) *Growth {
	return &Growth{name}
}

func Intercept() *Growth {
	return NewGrowth(GrowthIntercept)
}

func Linear() *Growth {
	return NewGrowth(GrowthLinear)
}

func (g Growth) String() string {
	return fmt.Sprintf("growth_%s", g.Name)
}

func (g Growth) Get(name string) (string, bool) {
	return label(g.Decode(), name)
}

func (g Growth) Type() FeatureType {
	return FeatureTypeGrowth
}

func (g Growth) Decode() map[string]string {
	return map[string]string{"name": g.Name}
}

// Generate computes the growth values for epoch seconds. Linear growth is 0 at the training start
// and 1 at the training end. Returns nil for an unknown growth or an empty training window.
func (g Growth) Generate(epoch []float64, trainStartTime, trainEndTime time.Time) []float64 {
	window := trainEndTime.Sub(trainStartTime).Seconds()
	if window <= 0 {
		return nil
	}

	start := float64(trainStartTime.UnixNano()) / 1e9
	res := make([]float64, len(epoch))
	switch g.Name {
	case GrowthIntercept:
		for i := range res {
			res[i] = 1.0
		}
	case GrowthLinear:
		for i, e := range epoch {
			res[i] = (e - start) / window
		}
	default:
		return nil
	}
	return res
}
