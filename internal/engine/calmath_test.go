package engine_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-miti/internal/bs"
	"github.com/tartampluch/go-miti/internal/engine"
)

func TestNextPreviousMonth(t *testing.T) {
	tests := []struct {
		name                string
		year, month         int
		nextYear, nextMonth int
		prevYear, prevMonth int
	}{
		{"mid year", 2081, 6, 2081, 7, 2081, 5},
		{"Chaitra rolls forward", 2081, 12, 2082, 1, 2081, 11},
		{"Baishakh rolls back", 2082, 1, 2082, 2, 2081, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y, m := engine.NextMonth(tt.year, tt.month)
			assert.Equal(t, tt.nextYear, y)
			assert.Equal(t, tt.nextMonth, m)

			y, m = engine.PreviousMonth(tt.year, tt.month)
			assert.Equal(t, tt.prevYear, y)
			assert.Equal(t, tt.prevMonth, m)
		})
	}
}

func TestMonthLength_MatchesAlmanac(t *testing.T) {
	m := engine.Math{Converter: fixtureConverter(t)}

	tests := []struct {
		year, month, want int
	}{
		{2080, 1, 30},
		{2080, 12, 30},
		{2081, 1, 32},
		{2081, 9, 29},
		{2081, 12, 29}, // length derived across the year boundary
		{2082, 3, 32},
	}

	for _, tt := range tests {
		got, err := m.MonthLength(tt.year, tt.month)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%d-%02d", tt.year, tt.month)
	}
}

func TestMonthLength_DefaultAlmanac(t *testing.T) {
	a := bs.DefaultAlmanac()
	m := engine.Math{Converter: bs.NewConverter(a)}

	// Every month except the last one can be measured.
	for y := a.FirstYear(); y <= a.LastYear(); y++ {
		for mo := 1; mo <= 12; mo++ {
			if y == a.LastYear() && mo == 12 {
				continue
			}
			n, err := m.MonthLength(y, mo)
			require.NoError(t, err)
			require.GreaterOrEqual(t, n, bs.MinMonthDays)
			require.LessOrEqual(t, n, bs.MaxMonthDays)
		}
	}
}

func TestFirstWeekday(t *testing.T) {
	m := engine.Math{Converter: fixtureConverter(t)}

	wd, err := m.FirstWeekday(2080, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, wd, "2023-04-11 is a Tuesday")

	wd, err = m.FirstWeekday(2081, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, wd, "2024-04-05 is a Friday")
}

// TestOutOfRange_Rejected checks that queries far outside the window fail
// with a DateRangeError instead of returning a value.
func TestOutOfRange_Rejected(t *testing.T) {
	m := engine.Math{Converter: fixtureConverter(t)}

	queries := map[string]func() error{
		"MonthLength year 1":        func() error { _, err := m.MonthLength(1, 1); return err },
		"FirstWeekday year 1":       func() error { _, err := m.FirstWeekday(1, 1); return err },
		"MonthLength last month":    func() error { _, err := m.MonthLength(2082, 12); return err },
		"FirstWeekday after window": func() error { _, err := m.FirstWeekday(2083, 1); return err },
	}

	for name, q := range queries {
		t.Run(name, func(t *testing.T) {
			err := q()
			var rangeErr *bs.DateRangeError
			require.True(t, errors.As(err, &rangeErr), "got %v", err)
		})
	}
}
