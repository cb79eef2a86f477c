// Package bs implements conversion between the Bikram Sambat calendar and the
// Gregorian calendar.
//
// The Bikram Sambat calendar has no closed-form month-length rule: each month
// lasts 29 to 32 days depending on the year, as published in the almanac. All
// conversions therefore go through an Almanac table and a linear day axis.
package bs

import (
	"fmt"
	"time"
)

// Calendar identifies the calendar a Date is expressed in.
type Calendar string

const (
	// BikramSambat is the primary (lunisolar, almanac-defined) calendar.
	BikramSambat Calendar = "BS"
	// Gregorian is the secondary calendar.
	Gregorian Calendar = "AD"
)

// DateLayout is the textual form used for storage keys and the HTTP API.
const DateLayout = "%04d-%02d-%02d"

// Date is a calendar date in either calendar. The calendar is implied by the
// context that produced it; both variants share the same shape.
type Date struct {
	Year    int          `json:"year"`
	Month   int          `json:"month"`
	Day     int          `json:"day"`
	Weekday time.Weekday `json:"dayOfWeek"`
}

// NewDate returns a Date without weekday information.
func NewDate(year, month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// FromTime returns the Gregorian Date of t in t's location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: int(m), Day: d, Weekday: t.Weekday()}
}

// Time returns midnight UTC of a Gregorian date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether d and o denote the same year, month and day.
// The weekday is ignored.
func (d Date) SameDay(o Date) bool {
	return d.Year == o.Year && d.Month == o.Month && d.Day == o.Day
}

// Before reports whether d is strictly earlier than o within the same calendar.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf(DateLayout, d.Year, d.Month, d.Day)
}

// ParseDate parses a YYYY-MM-DD string. It checks the shape only; whether the
// day exists is decided by the Converter of the relevant calendar.
func ParseDate(s string) (Date, error) {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return Date{}, fmt.Errorf("bs: malformed date %q (want YYYY-MM-DD)", s)
	}
	var d Date
	if _, err := fmt.Sscanf(s, "%4d-%2d-%2d", &d.Year, &d.Month, &d.Day); err != nil {
		return Date{}, fmt.Errorf("bs: malformed date %q: %w", s, err)
	}
	return d, nil
}

// ValidGregorian reports whether d names an existing Gregorian day.
func ValidGregorian(d Date) bool {
	if d.Month < 1 || d.Month > 12 || d.Day < 1 {
		return false
	}
	t := d.Time()
	return t.Year() == d.Year && int(t.Month()) == d.Month && t.Day() == d.Day
}
