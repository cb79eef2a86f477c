package holidays

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/tartampluch/go-miti/internal/bs"
	"github.com/tartampluch/go-miti/internal/config"
)

// maxEventDays bounds the expansion of multi-day events.
const maxEventDays = 31

const icsDateLayout = "20060102"

// ParseICS converts the all-day VEVENTs of an iCalendar feed into holidays.
// Event dates are Gregorian; each day an event covers becomes one BS holiday.
// Days outside the converter window are skipped.
func ParseICS(r io.Reader, conv bs.Converter) (Storage, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrHolidayICS, err)
	}

	log := slog.With(config.LogKeyComponent, config.CompHolidays)
	out := Storage{}
	for _, ev := range cal.Events() {
		name := propValue(ev, ical.ComponentPropertySummary)
		if name == "" {
			continue
		}
		start, days, ok := eventDays(ev)
		if !ok {
			continue
		}
		desc := propValue(ev, ical.ComponentPropertyDescription)

		for i := 0; i < days; i++ {
			ad := bs.FromTime(start.AddDate(0, 0, i))
			d, err := conv.ToBikramSambat(ad)
			if err != nil {
				log.Debug(config.MsgHolidaySkipped, config.LogKeyDate, ad.String(), config.LogKeyError, err)
				continue
			}
			key := yearKey(d.Year)
			out[key] = append(out[key], Holiday{Name: name, Date: d.String(), Description: desc})
		}
	}
	return out, Validate(out)
}

// eventDays returns the first day of an all-day event and how many days it
// spans. Timed events are ignored.
func eventDays(ev *ical.VEvent) (time.Time, int, bool) {
	startProp := ev.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil {
		return time.Time{}, 0, false
	}
	start, err := parseICSDate(startProp.Value)
	if err != nil {
		return time.Time{}, 0, false
	}

	days := 1
	if endProp := ev.GetProperty(ical.ComponentPropertyDtEnd); endProp != nil {
		if end, err := parseICSDate(endProp.Value); err == nil && end.After(start) {
			days = int(end.Sub(start).Hours() / 24)
		}
	}
	if days > maxEventDays {
		days = maxEventDays
	}
	return start, days, true
}

func parseICSDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if len(v) != len(icsDateLayout) {
		return time.Time{}, fmt.Errorf("not a DATE value: %q", v)
	}
	return time.Parse(icsDateLayout, v)
}

func propValue(ev *ical.VEvent, p ical.ComponentProperty) string {
	if prop := ev.GetProperty(p); prop != nil {
		return strings.TrimSpace(prop.Value)
	}
	return ""
}
