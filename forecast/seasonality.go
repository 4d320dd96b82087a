package forecast

import (
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/aouyang1/go-outlier/feature"
)

const (
	LabelSeasDaily  = "daily"
	LabelSeasWeekly = "weekly"
	LabelSeasYearly = "yearly"

	// YearPeriod is the mean length of a calendar year
	YearPeriod = time.Duration(365.25 * 24 * float64(time.Hour))
)

// SeasonalityOptions configures the number of seasonality components to fit for.
type SeasonalityOptions struct {
	SeasonalityConfigs []SeasonalityConfig `json:"seasonality_configs" yaml:"seasonality_configs"`
}

// NewDefaultSeasonalityOptions generates a default seasonality config with weekly and daily
// seasonal components
func NewDefaultSeasonalityOptions() SeasonalityOptions {
	return SeasonalityOptions{
		SeasonalityConfigs: []SeasonalityConfig{
			NewDailySeasonalityConfig(12),
			NewWeeklySeasonalityConfig(6),
		},
	}
}

// SeasonalityConfig represents a single seasonality configuration to model. This will generate
// Fourier series of the specified period and number of orders. E.g. a period of 24*time.Hour
// with 3 orders will create 6 Fourier series of order 1, 2, 3 and for the sine/cosine components
// where order 1 will have a period of 1 day and order 2 will have a period of 12 hours.
type SeasonalityConfig struct {
	Name   string        `json:"name" yaml:"name"`
	Orders int           `json:"orders" yaml:"orders"`
	Period time.Duration `json:"period" yaml:"period"`
}

// NewSeasonalityConfig creates a new seasonality config given a name, period and orders
func NewSeasonalityConfig(name string, period time.Duration, orders int) SeasonalityConfig {
	if orders < 0 {
		orders = 0
	}

	return SeasonalityConfig{
		Name:   name,
		Orders: orders,
		Period: period,
	}
}

// NewDailySeasonalityConfig creates a daily seasonality config given a specified number of orders
func NewDailySeasonalityConfig(orders int) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasDaily, 24*time.Hour, orders)
}

// NewWeeklySeasonalityConfig creates a weekly seasonality config given a specified number of orders
func NewWeeklySeasonalityConfig(orders int) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasWeekly, 7*24*time.Hour, orders)
}

// NewYearlySeasonalityConfig creates a yearly seasonality config given a specified number of orders
func NewYearlySeasonalityConfig(orders int) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasYearly, YearPeriod, orders)
}

// removeInvalid drops unnamed, non-positive and repeated configs keeping the highest order config
// for a period
func (s *SeasonalityOptions) removeInvalid() {
	cfgs := slices.Clone(s.SeasonalityConfigs)
	slices.SortStableFunc(cfgs, func(a, b SeasonalityConfig) int {
		if a.Period != b.Period {
			if a.Period < b.Period {
				return -1
			}
			return 1
		}
		return b.Orders - a.Orders
	})

	valid := make([]SeasonalityConfig, 0, len(cfgs))
	var lastPeriod time.Duration
	for _, cfg := range cfgs {
		if cfg.Period <= 0 || cfg.Period == lastPeriod || cfg.Name == "" || cfg.Orders <= 0 {
			continue
		}
		valid = append(valid, cfg)
		lastPeriod = cfg.Period
	}
	s.SeasonalityConfigs = valid
}

// generateFeatures adds the sine and cosine Fourier components of each config. Components with the
// same cycle length as an already generated component are skipped since they are colinear. Configs
// with a period longer than maxPeriod are skipped when maxPeriod is positive.
func (s SeasonalityOptions) generateFeatures(epoch []float64, maxPeriod time.Duration, feat *feature.Set) {
	seen := make(map[time.Duration]struct{})
	for _, cfg := range s.SeasonalityConfigs {
		if maxPeriod > 0 && cfg.Period > maxPeriod {
			continue
		}
		periodSec := cfg.Period.Seconds()
		for order := 1; order <= cfg.Orders; order++ {
			cycle := cfg.Period / time.Duration(order)
			if _, exists := seen[cycle]; exists {
				continue
			}
			seen[cycle] = struct{}{}

			sinFeat := feature.NewSeasonality(cfg.Name, feature.FourierCompSin, order)
			cosFeat := feature.NewSeasonality(cfg.Name, feature.FourierCompCos, order)
			feat.Set(sinFeat, sinFeat.Generate(epoch, periodSec))
			feat.Set(cosFeat, cosFeat.Generate(epoch, periodSec))
		}
	}
}

func (s SeasonalityOptions) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	p := newLinePrinter(w, prefix, indent)
	s.tablePrint(p, indentGrowth)
	return p.err
}

func (s SeasonalityOptions) tablePrint(p *linePrinter, depth int) {
	rows := make([][]string, 0, len(s.SeasonalityConfigs))
	for _, cfg := range s.SeasonalityConfigs {
		rows = append(rows, []string{cfg.Name, cfg.Period.String(), strconv.Itoa(cfg.Orders)})
	}
	p.section(depth, "Seasonality", []string{"Name", "Period", "Orders"}, rows)
}
