package forecast

import (
	"log/slog"
	"time"

	"github.com/aouyang1/go-outlier/feature"
)

// MaxWeekendDurBuffer sets a limit of 1 day before or after the weekend begins at 00:00 Saturday
// or 00:00 Monday, respectively. Timezone is based on weekend option timezone override or dataset
// timezone
const MaxWeekendDurBuffer = 24 * time.Hour

// WeekendOptions lets us model weekends separately from weekdays.
type WeekendOptions struct {
	Enabled          bool          `json:"enabled" yaml:"enabled"`
	TimezoneOverride string        `json:"timezone_override" yaml:"timezone_override"`
	DurBefore        time.Duration `json:"duration_before" yaml:"duration_before"`
	DurAfter         time.Duration `json:"duration_after" yaml:"duration_after"`
}

// Validate clamps the before and after durations to the max buffer
func (w *WeekendOptions) Validate() {
	w.DurBefore = min(max(w.DurBefore, -MaxWeekendDurBuffer), MaxWeekendDurBuffer)
	w.DurAfter = min(max(w.DurAfter, -MaxWeekendDurBuffer), MaxWeekendDurBuffer)
}

func isWeekday(wkday time.Weekday) bool {
	return wkday != time.Saturday && wkday != time.Sunday
}

func (w WeekendOptions) isWeekend(tPnt time.Time) bool {
	if w.DurBefore == 0 && w.DurAfter == 0 {
		return !isWeekday(tPnt.Weekday())
	}

	wkdayBeforeValid := !isWeekday(tPnt.Add(w.DurBefore).Weekday())
	wkdayAfterValid := !isWeekday(tPnt.Add(-w.DurAfter).Weekday())

	if w.DurBefore > 0 && w.DurAfter > 0 {
		return wkdayBeforeValid || wkdayAfterValid
	}
	return wkdayBeforeValid && wkdayAfterValid
}

func (w WeekendOptions) generateFeatures(t []time.Time, feat *feature.Set) {
	if !w.Enabled {
		return
	}

	var loc *time.Location
	if w.TimezoneOverride != "" {
		locOverride, err := time.LoadLocation(w.TimezoneOverride)
		if err != nil {
			slog.Warn("invalid timezone location override for weekend options, using dataset timezone", "timezone_override", w.TimezoneOverride)
		} else {
			loc = locOverride
		}
	}

	mask := make([]float64, len(t))
	for i, tPnt := range t {
		if loc != nil {
			tPnt = tPnt.In(loc)
		}
		if w.isWeekend(tPnt) {
			mask[i] = 1.0
		}
	}
	feat.Set(feature.NewEvent(LabelEventWeekend), mask)
}
