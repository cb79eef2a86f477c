// Package feed exports notes and holidays as an iCalendar subscription feed.
package feed

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/tartampluch/go-miti/internal/bs"
	"github.com/tartampluch/go-miti/internal/config"
	"github.com/tartampluch/go-miti/internal/engine"
	"github.com/tartampluch/go-miti/internal/holidays"
	"github.com/tartampluch/go-miti/internal/notes"
)

// NoteSource lists the notes of a BS month keyed by YYYY-MM-DD.
type NoteSource interface {
	ForMonth(year, month int) (map[string][]notes.Note, error)
}

// HolidaySource lists the holidays of a BS year.
type HolidaySource interface {
	ForYear(year int) ([]holidays.Holiday, error)
}

// Stats summarizes a generated feed.
type Stats struct {
	Notes    int
	Holidays int
	Skipped  int
}

// Generator builds the feed.
type Generator struct {
	Notes     NoteSource
	Holidays  HolidaySource
	Converter bs.Converter
	Clock     engine.Clock

	// Reminder, when set, is the TRIGGER of a display alarm on note events.
	Reminder string
}

// Build encodes all-day events for the previous, current and next BS year,
// so a subscribed client can scroll around without waiting for a refresh.
// An empty result is still a valid VCALENDAR.
func (g *Generator) Build(ctx context.Context) ([]byte, Stats, error) {
	start := time.Now()
	var stats Stats

	now := g.Clock.Now()
	today, err := g.Converter.ToBikramSambat(bs.FromTime(now))
	if err != nil {
		return nil, stats, fmt.Errorf("%s: %w", config.ErrFeedBuild, err)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(now.UTC())

	for year := today.Year - 1; year <= today.Year+1; year++ {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		for _, e := range g.holidayEvents(year, &stats) {
			e.Props.Set(dtStampProp)
			cal.Children = append(cal.Children, e.Component)
		}
		events, err := g.noteEvents(year, &stats)
		if err != nil {
			return nil, stats, fmt.Errorf("%s: %w", config.ErrFeedBuild, err)
		}
		for _, e := range events {
			e.Props.Set(dtStampProp)
			cal.Children = append(cal.Children, e.Component)
		}
	}

	var buf bytes.Buffer
	if len(cal.Children) == 0 {
		buf.WriteString(config.StubVCalendar)
	} else if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, stats, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}

	slog.Info(config.MsgFeedBuilt,
		config.LogKeyComponent, config.CompFeed,
		config.LogKeyCount, stats.Notes+stats.Holidays,
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), stats, nil
}

func (g *Generator) holidayEvents(year int, stats *Stats) []*ical.Event {
	if g.Holidays == nil {
		return nil
	}
	list, err := g.Holidays.ForYear(year)
	if err != nil {
		slog.Warn(config.ErrFeedBuild, config.LogKeyComponent, config.CompFeed, config.LogKeyError, err)
		return nil
	}

	var events []*ical.Event
	for _, h := range list {
		ad, ok := g.gregorian(h.Date, stats)
		if !ok {
			continue
		}
		e := newEvent(uid(h.Name, h.Date), h.Name, h.Description, config.CategoryHoliday, ad)
		events = append(events, e)
		stats.Holidays++
	}
	return events
}

func (g *Generator) noteEvents(year int, stats *Stats) ([]*ical.Event, error) {
	if g.Notes == nil {
		return nil, nil
	}
	var events []*ical.Event
	for month := 1; month <= 12; month++ {
		byDay, err := g.Notes.ForMonth(year, month)
		if err != nil {
			return nil, err
		}
		days := make([]string, 0, len(byDay))
		for d := range byDay {
			days = append(days, d)
		}
		sort.Strings(days)

		for _, day := range days {
			ad, ok := g.gregorian(day, stats)
			if !ok {
				continue
			}
			for _, n := range byDay[day] {
				summary := Summary(n.Text)
				e := newEvent(uid(n.ID, day), summary, n.Text, config.CategoryNote, ad)
				if g.Reminder != "" {
					addAlarm(e, g.Reminder, summary)
				}
				events = append(events, e)
				stats.Notes++
			}
		}
	}
	return events, nil
}

func (g *Generator) gregorian(date string, stats *Stats) (time.Time, bool) {
	d, err := bs.ParseDate(date)
	if err == nil {
		var ad bs.Date
		if ad, err = g.Converter.ToGregorian(d); err == nil {
			return ad.Time(), true
		}
	}
	stats.Skipped++
	slog.Debug(config.MsgDateSkipped,
		config.LogKeyComponent, config.CompFeed,
		config.LogKeyDate, date,
		config.LogKeyError, err,
	)
	return time.Time{}, false
}

// Summary returns the first line of a note, shortened to the preview length.
func Summary(text string) string {
	first, _, _ := strings.Cut(text, "\n")
	return notes.Preview(strings.TrimSpace(first), config.NotePreviewLength)
}

func newEvent(uid, summary, description, category string, day time.Time) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(config.PropUID, uid)
	event.Props.SetText(config.PropSummary, summary)
	if description != "" && description != summary {
		event.Props.SetText(config.PropDescription, description)
	}
	event.Props.SetText(config.PropCategories, category)

	dtStartProp := ical.NewProp(config.PropDTStart)
	dtStartProp.SetDate(day)
	event.Props.Set(dtStartProp)
	return event
}

// addAlarm appends a DISPLAY alarm (notification) to the event.
func addAlarm(event *ical.Event, trigger, description string) {
	alarm := ical.NewComponent(config.ICalAlarm)
	alarm.Props.SetText(config.PropAction, config.ICalAction)
	alarm.Props.SetText(config.PropDescription, description)

	// Set the value directly to avoid a VALUE=TEXT parameter.
	triggerProp := ical.NewProp(config.PropTrigger)
	triggerProp.Value = trigger
	alarm.Props.Set(triggerProp)

	event.Children = append(event.Children, alarm)
}

// uid derives a stable identifier so clients update events in place across
// refreshes.
func uid(key, date string) string {
	input := fmt.Sprintf(config.FormatHashInput, key, date, config.UIDSalt)
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf(config.FormatUID, fmt.Sprintf("%x", hash[:config.UIDHashLength]), config.ICalDomain)
}
