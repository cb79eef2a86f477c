package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-miti/internal/bs"
	"github.com/tartampluch/go-miti/internal/engine"
)

// TestBuildMonth_ThirtyTwoDaysStartingFriday covers the canonical six-week
// layout: 5 leading days, 32 days, 5 trailing days.
func TestBuildMonth_ThirtyTwoDaysStartingFriday(t *testing.T) {
	conv := fixtureConverter(t)
	g := engine.NewGridBuilder(conv, bs.NewDate(1999, 1, 1))

	m, err := g.BuildMonth(bs.NewDate(2024, 4, 20))
	require.NoError(t, err)

	assert.Equal(t, 2081, m.Year)
	assert.Equal(t, 1, m.Month)
	assert.Equal(t, "Baishakh", m.MonthName)
	assert.Equal(t, 32, m.DaysInMonth)
	assert.Equal(t, 5, m.StartDayOfWeek)
	assert.Equal(t, 5, m.LeadingDays())
	assert.Len(t, m.Cells, 42)
	assert.Equal(t, 5, m.TrailingDays())

	first := m.Cells[5]
	assert.Equal(t, bs.NewDate(2081, 1, 1).String(), first.BS.String())
	assert.Equal(t, "2024-04-05", first.AD.String())
	assert.Equal(t, time.Friday, first.AD.Weekday)
	assert.Equal(t, time.Friday, first.BS.Weekday)
	assert.True(t, first.IsCurrentMonth)

	// Leading cells are the tail of Chaitra 2080.
	assert.Equal(t, "2080-12-26", m.Cells[0].BS.String())
	assert.Equal(t, "2080-12-30", m.Cells[4].BS.String())
	for _, c := range m.Cells[:5] {
		assert.False(t, c.IsCurrentMonth)
	}

	// Trailing cells are the head of Jestha 2081.
	assert.Equal(t, "2081-01-32", m.Cells[36].BS.String())
	assert.Equal(t, "2081-02-01", m.Cells[37].BS.String())
	assert.Equal(t, "2081-02-05", m.Cells[41].BS.String())
	for _, c := range m.Cells[37:] {
		assert.False(t, c.IsCurrentMonth)
	}

	weeks := m.Weeks()
	require.Len(t, weeks, 6)
	for i, w := range weeks {
		require.Len(t, w, 7)
		assert.Equal(t, time.Sunday, w[0].AD.Weekday, "week %d starts on Sunday", i)
	}
	assert.Len(t, m.CurrentMonthCells(), 32)
}

// TestBuildMonth_NoTrailingDays covers a month ending exactly on Saturday.
func TestBuildMonth_NoTrailingDays(t *testing.T) {
	conv := fixtureConverter(t)
	g := engine.NewGridBuilder(conv, bs.Date{})

	// Ashwin 2080 starts Friday 2023-09-08 and has 30 days: 5 + 30 = 35.
	m, err := g.BuildMonth(adOf(t, conv, 2080, 6, 10))
	require.NoError(t, err)

	assert.Equal(t, 6, m.Month)
	assert.Equal(t, 5, m.StartDayOfWeek)
	assert.Len(t, m.Cells, 35)
	assert.Equal(t, 0, m.TrailingDays())
	assert.True(t, m.Cells[34].IsCurrentMonth)
	assert.Equal(t, "2080-06-30", m.Cells[34].BS.String())
}

func TestBuildMonth_NoLeadingDays(t *testing.T) {
	g := engine.NewGridBuilder(bs.NewConverter(bs.DefaultAlmanac()), bs.Date{})

	// 1 Baishakh 2070 is a Sunday.
	m, err := g.BuildMonth(bs.NewDate(2013, 4, 20))
	require.NoError(t, err)
	assert.Equal(t, 0, m.LeadingDays())
	assert.Equal(t, "2070-01-01", m.Cells[0].BS.String())
	assert.True(t, m.Cells[0].IsCurrentMonth)
}

// TestBuildMonth_YearBoundary checks that Chaitra and Baishakh share their
// spillover days through the year rollover.
func TestBuildMonth_YearBoundary(t *testing.T) {
	conv := fixtureConverter(t)
	g := engine.NewGridBuilder(conv, bs.Date{})

	chaitra, err := g.BuildMonth(adOf(t, conv, 2081, 12, 15))
	require.NoError(t, err)
	baishakh, err := g.BuildMonth(adOf(t, conv, 2082, 1, 15))
	require.NoError(t, err)

	assert.Equal(t, 2081, chaitra.Year)
	assert.Equal(t, 12, chaitra.Month)
	assert.Equal(t, 2082, baishakh.Year)
	assert.Equal(t, 1, baishakh.Month)

	for _, c := range chaitra.Cells[chaitra.LeadingDays()+chaitra.DaysInMonth:] {
		assert.Equal(t, 2082, c.BS.Year)
		assert.Equal(t, 1, c.BS.Month)
	}
	for _, c := range baishakh.Cells[:baishakh.LeadingDays()] {
		assert.Equal(t, 2081, c.BS.Year)
		assert.Equal(t, 12, c.BS.Month)
	}
	if baishakh.LeadingDays() > 0 {
		last := baishakh.Cells[baishakh.LeadingDays()-1]
		assert.Equal(t, 29, last.BS.Day, "leading block ends on the last day of Chaitra 2081")
	}
}

func TestBuildMonth_TodayMarking(t *testing.T) {
	conv := fixtureConverter(t)
	today := bs.NewDate(2024, 4, 10)
	g := engine.NewGridBuilder(conv, today)

	m, err := g.BuildMonth(today)
	require.NoError(t, err)

	marked := 0
	for i, c := range m.Cells {
		if c.IsToday {
			marked++
			assert.Equal(t, 10, i)
			assert.True(t, c.AD.SameDay(today))
		}
	}
	assert.Equal(t, 1, marked)

	// A month that does not contain today has no marked cell.
	other, err := g.BuildMonth(adOf(t, conv, 2081, 6, 1))
	require.NoError(t, err)
	for _, c := range other.Cells {
		assert.False(t, c.IsToday)
	}
}

// TestBuildMonth_GridProperties walks every buildable month of the bundled
// almanac and checks completeness, continuity and month length.
func TestBuildMonth_GridProperties(t *testing.T) {
	a := bs.DefaultAlmanac()
	conv := bs.NewConverter(a)
	math := engine.Math{Converter: conv}
	today := bs.NewDate(2025, 4, 14)
	g := engine.NewGridBuilder(conv, today)

	for y := a.FirstYear(); y <= a.LastYear(); y++ {
		for mo := 1; mo <= 12; mo++ {
			anchor := adOf(t, conv, y, mo, 1)
			m, err := g.BuildMonth(anchor)
			if (y == a.LastYear() && mo == 12) || (y == a.FirstYear() && mo == 1) {
				// The last month cannot be measured; the first starts on a
				// Saturday and its leading cells fall before the almanac.
				var rangeErr *bs.DateRangeError
				require.True(t, errors.As(err, &rangeErr), "%d-%02d", y, mo)
				continue
			}
			require.NoError(t, err, "%d-%02d", y, mo)

			require.Zero(t, len(m.Cells)%7)
			require.GreaterOrEqual(t, len(m.Cells), m.DaysInMonth)
			require.Equal(t, (m.StartDayOfWeek+m.DaysInMonth+6)/7*7, len(m.Cells))

			length, err := math.MonthLength(y, mo)
			require.NoError(t, err)
			current, marked := 0, 0
			for i, c := range m.Cells {
				if c.IsCurrentMonth {
					current++
				}
				if c.IsToday {
					marked++
					require.True(t, c.AD.SameDay(today))
				}
				require.Equal(t, c.AD.Weekday, time.Weekday(i%7))
				if i > 0 {
					gap := c.AD.Time().Sub(m.Cells[i-1].AD.Time())
					require.Equal(t, 24*time.Hour, gap, "%d-%02d cell %d", y, mo, i)
				}
			}
			require.Equal(t, length, current)
			require.LessOrEqual(t, marked, 1)
		}
	}
}

func TestBuildMonth_RangeErrors(t *testing.T) {
	conv := fixtureConverter(t)
	g := engine.NewGridBuilder(conv, bs.Date{})

	anchors := map[string]bs.Date{
		"before window":                 bs.NewDate(2020, 1, 1),
		"first month needs predecessor": bs.NewDate(2023, 4, 20),
		"last month cannot be measured": adOf(t, conv, 2082, 12, 5),
		"invalid Gregorian anchor":      bs.NewDate(2024, 2, 30),
	}

	for name, anchor := range anchors {
		t.Run(name, func(t *testing.T) {
			_, err := g.BuildMonth(anchor)
			var rangeErr *bs.DateRangeError
			assert.True(t, errors.As(err, &rangeErr), "got %v", err)
		})
	}
}

func TestBuildMonth_InvariantViolationPanics(t *testing.T) {
	g := engine.NewGridBuilder(oddWeekdayConverter{fixtureConverter(t)}, bs.Date{})

	assert.Panics(t, func() {
		_, _ = g.BuildMonth(bs.NewDate(2024, 4, 20))
	})
}

func TestCalendarMonth_SpannedMonths(t *testing.T) {
	conv := fixtureConverter(t)
	g := engine.NewGridBuilder(conv, bs.Date{})

	// Chaitra 2081 starts on a Friday and lasts 29 days: five leading days,
	// one trailing.
	chaitra, err := g.BuildMonth(adOf(t, conv, 2081, 12, 15))
	require.NoError(t, err)
	require.Equal(t, 5, chaitra.LeadingDays())
	require.Equal(t, 1, chaitra.TrailingDays())
	assert.Equal(t, []engine.YearMonth{
		{Year: 2081, Month: 11},
		{Year: 2081, Month: 12},
		{Year: 2082, Month: 1},
	}, chaitra.SpannedMonths())
}
