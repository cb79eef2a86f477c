package engine

import (
	"fmt"
	"log/slog"

	"github.com/tartampluch/go-miti/internal/bs"
	"github.com/tartampluch/go-miti/internal/config"
)

const daysPerWeek = 7

// DateCell is one day of the month grid, carried in both calendars.
type DateCell struct {
	BS             bs.Date `json:"bs"`
	AD             bs.Date `json:"ad"`
	IsToday        bool    `json:"isToday"`
	IsCurrentMonth bool    `json:"isCurrentMonth"`
}

// CalendarMonth is an immutable snapshot of a Bikram Sambat month laid out in
// whole weeks starting on Sunday. The first StartDayOfWeek cells and the cells
// after StartDayOfWeek+DaysInMonth belong to the adjacent months.
type CalendarMonth struct {
	Year           int        `json:"year"`
	Month          int        `json:"month"`
	MonthName      string     `json:"monthName"`
	Cells          []DateCell `json:"cells"`
	StartDayOfWeek int        `json:"startDayOfWeek"`
	DaysInMonth    int        `json:"daysInMonth"`
}

// LeadingDays is the number of spillover cells from the previous month.
func (m CalendarMonth) LeadingDays() int { return m.StartDayOfWeek }

// TrailingDays is the number of spillover cells from the next month.
func (m CalendarMonth) TrailingDays() int {
	return len(m.Cells) - m.StartDayOfWeek - m.DaysInMonth
}

// CurrentMonthCells returns the cells of the month itself, day 1 first.
func (m CalendarMonth) CurrentMonthCells() []DateCell {
	return m.Cells[m.StartDayOfWeek : m.StartDayOfWeek+m.DaysInMonth]
}

// YearMonth names a Bikram Sambat month.
type YearMonth struct {
	Year, Month int
}

// SpannedMonths lists the months the grid shows cells of, in grid order:
// the previous month when there are leading days, the month itself, then the
// next month when there are trailing days.
func (m CalendarMonth) SpannedMonths() []YearMonth {
	var out []YearMonth
	for _, c := range m.Cells {
		ym := YearMonth{c.BS.Year, c.BS.Month}
		if len(out) == 0 || out[len(out)-1] != ym {
			out = append(out, ym)
		}
	}
	return out
}

// Weeks splits the cells into rows of seven.
func (m CalendarMonth) Weeks() [][]DateCell {
	weeks := make([][]DateCell, 0, len(m.Cells)/daysPerWeek)
	for i := 0; i < len(m.Cells); i += daysPerWeek {
		weeks = append(weeks, m.Cells[i:i+daysPerWeek])
	}
	return weeks
}

// GridBuilder produces CalendarMonth values. Today is the session's fixed
// notion of the current day (Gregorian).
type GridBuilder struct {
	Math  Math
	Today bs.Date
}

// NewGridBuilder returns a builder over conv that highlights today.
func NewGridBuilder(conv bs.Converter, today bs.Date) *GridBuilder {
	return &GridBuilder{Math: Math{Converter: conv}, Today: today}
}

// monthLayout is everything a grid needs to know about a month before any
// cell is converted.
type monthLayout struct {
	daysInMonth int
	leading     int
	trailing    int
	prevLength  int
}

// layout resolves a month's grid shape, including the length of the preceding
// month when leading cells spill into it. A month whose grid cannot be filled
// fails here with the converter's error.
func (m Math) layout(year, month int) (monthLayout, error) {
	daysInMonth, err := m.MonthLength(year, month)
	if err != nil {
		return monthLayout{}, err
	}
	leading, err := m.FirstWeekday(year, month)
	if err != nil {
		return monthLayout{}, err
	}

	total := (leading + daysInMonth + daysPerWeek - 1) / daysPerWeek * daysPerWeek
	l := monthLayout{
		daysInMonth: daysInMonth,
		leading:     leading,
		trailing:    total - leading - daysInMonth,
	}
	if l.trailing < 0 || l.trailing >= daysPerWeek {
		panic(fmt.Sprintf("%s: trailing days %d for %04d-%02d (leading %d, length %d)",
			config.ErrInvariantBroken, l.trailing, year, month, leading, daysInMonth))
	}

	if leading > 0 {
		py, pm := PreviousMonth(year, month)
		if l.prevLength, err = m.MonthLength(py, pm); err != nil {
			return monthLayout{}, err
		}
	}
	return l, nil
}

func (l monthLayout) totalCells() int { return l.leading + l.daysInMonth + l.trailing }

// BuildMonth lays out the Bikram Sambat month containing the Gregorian anchor
// date. Conversion failures are returned as-is (*bs.DateRangeError).
func (g *GridBuilder) BuildMonth(anchor bs.Date) (CalendarMonth, error) {
	at, err := g.Math.Converter.ToBikramSambat(anchor)
	if err != nil {
		return CalendarMonth{}, err
	}
	year, month := at.Year, at.Month

	l, err := g.Math.layout(year, month)
	if err != nil {
		return CalendarMonth{}, err
	}

	name, err := bs.MonthName(month)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", config.ErrInvariantBroken, err))
	}

	totalCells := l.totalCells()
	cells := make([]DateCell, 0, totalCells)

	py, pm := PreviousMonth(year, month)
	for day := l.prevLength - l.leading + 1; day <= l.prevLength; day++ {
		if cells, err = g.appendCell(cells, bs.NewDate(py, pm, day), false); err != nil {
			return CalendarMonth{}, err
		}
	}

	for day := 1; day <= l.daysInMonth; day++ {
		if cells, err = g.appendCell(cells, bs.NewDate(year, month, day), true); err != nil {
			return CalendarMonth{}, err
		}
	}

	ny, nm := NextMonth(year, month)
	for day := 1; day <= l.trailing; day++ {
		if cells, err = g.appendCell(cells, bs.NewDate(ny, nm, day), false); err != nil {
			return CalendarMonth{}, err
		}
	}

	if len(cells) != totalCells {
		panic(fmt.Sprintf("%s: built %d cells, want %d", config.ErrInvariantBroken, len(cells), totalCells))
	}

	slog.Debug(config.MsgMonthBuilt,
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyYear, year,
		config.LogKeyMonth, month,
		config.LogKeyCells, totalCells,
	)

	return CalendarMonth{
		Year:           year,
		Month:          month,
		MonthName:      name,
		Cells:          cells,
		StartDayOfWeek: l.leading,
		DaysInMonth:    l.daysInMonth,
	}, nil
}

// appendCell converts a Bikram Sambat day and appends its cell.
func (g *GridBuilder) appendCell(cells []DateCell, day bs.Date, current bool) ([]DateCell, error) {
	ad, err := g.Math.Converter.ToGregorian(day)
	if err != nil {
		return cells, err
	}
	day.Weekday = ad.Weekday
	return append(cells, DateCell{
		BS:             day,
		AD:             ad,
		IsToday:        ad.SameDay(g.Today),
		IsCurrentMonth: current,
	}), nil
}
