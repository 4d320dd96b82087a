package forecast

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aouyang1/go-outlier/feature"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

const (
	LabelEventWeekend = "weekend"

	HolidayChristmas    = "christmas"
	HolidayThanksgiving = "thanksgiving"
	HolidayNewYear      = "new_year"
	HolidayIndependence = "independence_day"
	HolidayMemorial     = "memorial_day"
	HolidayLabor        = "labor_day"
)

var (
	ErrStartAfterEnd  = errors.New("event start time is after end time")
	ErrUnsetTime      = errors.New("unset event start or end time")
	ErrNoEventName    = errors.New("no event name")
	ErrUnknownHoliday = errors.New("unknown holiday")
)

var holidayNamer = strings.NewReplacer(" ", "_", "'", "")

var holidays = map[string]*cal.Holiday{
	HolidayChristmas:    us.ChristmasDay,
	HolidayThanksgiving: us.ThanksgivingDay,
	HolidayNewYear:      us.NewYear,
	HolidayIndependence: us.IndependenceDay,
	HolidayMemorial:     us.MemorialDay,
	HolidayLabor:        us.LaborDay,
}

// Event represents a time span to model separately with its own bias
type Event struct {
	Name  string    `json:"name" yaml:"name"`
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

func NewEvent(name string, start, end time.Time) Event {
	return Event{
		Name:  name,
		Start: start,
		End:   end,
	}
}

func (e Event) Valid() error {
	if e.Start.IsZero() || e.End.IsZero() {
		return ErrUnsetTime
	}
	if e.Start.After(e.End) {
		return ErrStartAfterEnd
	}
	if e.Name == "" {
		return ErrNoEventName
	}
	return nil
}

func (e Event) label() string {
	return strings.ReplaceAll(e.Name, " ", "_")
}

func (e Event) contains(tPnt time.Time) bool {
	return !tPnt.Before(e.Start) && tPnt.Before(e.End)
}

// EventOptions lists the explicit events to model
type EventOptions struct {
	Events []Event `json:"events" yaml:"events"`
}

func (e EventOptions) generateFeatures(t []time.Time, feat *feature.Set) {
	for _, ev := range e.Events {
		if err := ev.Valid(); err != nil {
			slog.Warn("not separately modelling invalid event", "name", ev.Name, "error", err.Error())
			continue
		}
		mask := make([]float64, len(t))
		for i, tPnt := range t {
			if ev.contains(tPnt) {
				mask[i] = 1.0
			}
		}
		feat.Set(feature.NewEvent(ev.label()), mask)
	}
}

func (e EventOptions) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	p := newLinePrinter(w, prefix, indent)
	e.tablePrint(p, indentGrowth)
	return p.err
}

func (e EventOptions) tablePrint(p *linePrinter, depth int) {
	rows := make([][]string, 0, len(e.Events))
	for _, ev := range e.Events {
		rows = append(rows, []string{ev.Name, ev.Start.String(), ev.End.String()})
	}
	p.section(depth, "Events", []string{"Name", "Start", "End"}, rows)
}

// HolidayOptions models US holidays as events spanning the observed day, widened by the before and
// after durations
type HolidayOptions struct {
	Holidays  []string      `json:"holidays" yaml:"holidays"`
	DurBefore time.Duration `json:"duration_before" yaml:"duration_before"`
	DurAfter  time.Duration `json:"duration_after" yaml:"duration_after"`
}

// Validate checks every holiday name is known
func (h HolidayOptions) Validate() error {
	for _, name := range h.Holidays {
		if _, exists := holidays[name]; !exists {
			return fmt.Errorf("%q, %w", name, ErrUnknownHoliday)
		}
	}
	return nil
}

// Events returns one event per holiday per year overlapping the start and end times. The holiday
// is midnight to midnight in the location of start.
func (h HolidayOptions) Events(start, end time.Time) []Event {
	var events []Event
	for _, name := range h.Holidays {
		hol, exists := holidays[name]
		if !exists {
			continue
		}
		events = append(events, Holiday(hol, start, end, h.DurBefore, h.DurAfter)...)
	}
	return events
}

// generateFeatures adds one event feature per holiday covering every observed occurrence within
// the time range so a fit on one year applies to the next
func (h HolidayOptions) generateFeatures(t []time.Time, feat *feature.Set) {
	if len(t) == 0 {
		return
	}
	start := t[0]
	end := t[len(t)-1]
	for _, name := range h.Holidays {
		hol, exists := holidays[name]
		if !exists {
			slog.Warn("not modelling unknown holiday", "name", name)
			continue
		}
		events := Holiday(hol, start, end, h.DurBefore, h.DurAfter)
		mask := make([]float64, len(t))
		for i, tPnt := range t {
			for _, ev := range events {
				if ev.contains(tPnt) {
					mask[i] = 1.0
					break
				}
			}
		}
		feat.Set(feature.NewEvent(name), mask)
	}
}

// Holiday generates the observed holiday events for each year between start and end
func Holiday(hol *cal.Holiday, start, end time.Time, durBefore, durAfter time.Duration) []Event {
	loc := start.Location()

	var events []Event
	for year := start.Year() - 1; year <= end.Year()+1; year++ {
		_, observed := hol.Calc(year)
		if observed.IsZero() {
			continue
		}
		day := time.Date(observed.Year(), observed.Month(), observed.Day(), 0, 0, 0, 0, loc)
		ev := Event{
			Name:  holidayNamer.Replace(strings.ToLower(hol.Name)) + "_" + strconv.Itoa(year),
			Start: day.Add(-durBefore),
			End:   day.AddDate(0, 0, 1).Add(durAfter),
		}
		if ev.End.Before(start) || ev.Start.After(end) {
			continue
		}
		events = append(events, ev)
	}
	return events
}
