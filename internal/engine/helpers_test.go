package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-miti/internal/bs"
)

// MockClock controls time for deterministic testing.
type MockClock struct {
	CurrentTime time.Time
}

func (m MockClock) Now() time.Time {
	return m.CurrentTime
}

// fixtureConverter returns a converter over a small synthetic almanac:
//
//	2080: twelve 30-day months, 1 Baishakh = Tue 2023-04-11
//	2081: Baishakh has 32 days and starts on Fri 2024-04-05
//	2082: ordinary year, last supported year
func fixtureConverter(t *testing.T) *bs.AlmanacConverter {
	t.Helper()
	a, err := bs.NewAlmanac(2080, time.Date(2023, 4, 11, 0, 0, 0, 0, time.UTC), [][12]int{
		{30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30},
		{32, 31, 31, 32, 31, 30, 30, 30, 29, 30, 30, 29},
		{31, 31, 32, 31, 31, 30, 30, 30, 29, 30, 30, 30},
	})
	require.NoError(t, err)
	return bs.NewConverter(a)
}

// adOf converts a BS date of the fixture to Gregorian.
func adOf(t *testing.T, c bs.Converter, year, month, day int) bs.Date {
	t.Helper()
	d, err := c.ToGregorian(bs.NewDate(year, month, day))
	require.NoError(t, err)
	return d
}

// oddWeekdayConverter reports an impossible weekday to break grid arithmetic.
type oddWeekdayConverter struct {
	bs.Converter
}

func (c oddWeekdayConverter) ToGregorian(d bs.Date) (bs.Date, error) {
	out, err := c.Converter.ToGregorian(d)
	out.Weekday = -1
	return out, err
}
