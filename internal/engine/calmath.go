package engine

import (
	"github.com/tartampluch/go-miti/internal/bs"
)

const hoursPerDay = 24

// Math answers month-level questions about the Bikram Sambat calendar.
// Month lengths are almanac-defined, so every answer is derived through the
// Converter rather than a closed-form rule.
type Math struct {
	Converter bs.Converter
}

// MonthLength returns the number of days of a Bikram Sambat month, computed
// as the distance between its first day and the first day of the following
// month on the Gregorian axis.
func (m Math) MonthLength(year, month int) (int, error) {
	start, err := m.Converter.ToGregorian(bs.NewDate(year, month, 1))
	if err != nil {
		return 0, err
	}
	ny, nm := NextMonth(year, month)
	next, err := m.Converter.ToGregorian(bs.NewDate(ny, nm, 1))
	if err != nil {
		return 0, err
	}
	return int(next.Time().Sub(start.Time()).Hours()) / hoursPerDay, nil
}

// FirstWeekday returns the weekday of day 1 of a Bikram Sambat month.
func (m Math) FirstWeekday(year, month int) (int, error) {
	first, err := m.Converter.ToGregorian(bs.NewDate(year, month, 1))
	if err != nil {
		return 0, err
	}
	return int(first.Weekday), nil
}

// NextMonth returns the month after (year, month), rolling into the next year
// after Chaitra.
func NextMonth(year, month int) (int, int) {
	month++
	if month > 12 {
		return year + 1, 1
	}
	return year, month
}

// PreviousMonth returns the month before (year, month), rolling into the
// previous year before Baishakh.
func PreviousMonth(year, month int) (int, int) {
	month--
	if month < 1 {
		return year - 1, 12
	}
	return year, month
}
