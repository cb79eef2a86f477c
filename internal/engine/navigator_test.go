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

// movingClock returns whatever time it currently holds.
type movingClock struct {
	now time.Time
}

func (c *movingClock) Now() time.Time { return c.now }

func navigatorAt(t *testing.T, conv bs.Converter, year, month, day int) *engine.Navigator {
	t.Helper()
	ad := adOf(t, conv, year, month, day)
	return engine.NewNavigator(conv, MockClock{CurrentTime: ad.Time().Add(9 * time.Hour)})
}

func displayed(t *testing.T, n *engine.Navigator) (int, int) {
	t.Helper()
	y, m, err := n.Displayed()
	require.NoError(t, err)
	return y, m
}

func TestNewNavigator_StartsOnToday(t *testing.T) {
	conv := fixtureConverter(t)
	clock := MockClock{CurrentTime: time.Date(2024, 4, 10, 18, 30, 0, 0, time.UTC)}

	n := engine.NewNavigator(conv, clock)
	assert.Equal(t, "2024-04-10", n.Anchor().String())
	assert.Equal(t, "2024-04-10", n.Today().String())
	_, ok := n.Selected()
	assert.False(t, ok)

	y, m := displayed(t, n)
	assert.Equal(t, 2081, y)
	assert.Equal(t, 1, m)
}

// TestNavigator_TodayIsFixed documents that "today" is read once per session.
func TestNavigator_TodayIsFixed(t *testing.T) {
	conv := fixtureConverter(t)
	clock := &movingClock{now: time.Date(2024, 4, 10, 23, 59, 0, 0, time.UTC)}

	n := engine.NewNavigator(conv, clock)
	clock.now = clock.now.Add(2 * time.Hour)

	n.ResetToday()
	assert.Equal(t, "2024-04-10", n.Today().String())
	assert.Equal(t, "2024-04-10", n.Anchor().String())
}

func TestNavigator_NextPreviousAcrossYear(t *testing.T) {
	conv := fixtureConverter(t)
	n := navigatorAt(t, conv, 2081, 12, 10)

	require.NoError(t, n.Next())
	y, m := displayed(t, n)
	assert.Equal(t, 2082, y)
	assert.Equal(t, 1, m)
	assert.True(t, n.Anchor().SameDay(adOf(t, conv, 2082, 1, 1)), "anchor re-pinned to day 1")

	require.NoError(t, n.Previous())
	y, m = displayed(t, n)
	assert.Equal(t, 2081, y)
	assert.Equal(t, 12, m)
	assert.True(t, n.Anchor().SameDay(adOf(t, conv, 2081, 12, 1)))
}

// TestNavigator_RoundTripEverywhere checks next-then-previous on every month
// of the bundled almanac that has a measurable neighbour on both sides.
func TestNavigator_RoundTripEverywhere(t *testing.T) {
	a := bs.DefaultAlmanac()
	conv := bs.NewConverter(a)

	for y := a.FirstYear(); y <= a.LastYear(); y++ {
		for mo := 1; mo <= 12; mo++ {
			if y == a.LastYear() && mo >= 11 {
				continue
			}
			n := navigatorAt(t, conv, y, mo, 15)
			require.NoError(t, n.Next(), "%d-%02d", y, mo)
			require.NoError(t, n.Previous(), "%d-%02d", y, mo)

			gy, gm := displayed(t, n)
			require.Equal(t, y, gy)
			require.Equal(t, mo, gm)
		}
	}
}

// TestNavigator_NoDrift starts on the 32nd day of a month and walks a full
// year forward: every stop must be day 1 of the next month.
func TestNavigator_NoDrift(t *testing.T) {
	conv := fixtureConverter(t)
	n := navigatorAt(t, conv, 2081, 1, 32)

	for i := 0; i < 12; i++ {
		require.NoError(t, n.Next())
		cur, err := conv.ToBikramSambat(n.Anchor())
		require.NoError(t, err)
		assert.Equal(t, 1, cur.Day)
	}
	y, m := displayed(t, n)
	assert.Equal(t, 2082, y)
	assert.Equal(t, 1, m)
}

func TestNavigator_ResetToday(t *testing.T) {
	conv := fixtureConverter(t)
	n := navigatorAt(t, conv, 2081, 5, 7)
	today := n.Today()

	require.NoError(t, n.Next())
	require.NoError(t, n.Next())
	n.ResetToday()

	assert.Equal(t, today, n.Anchor())
}

func TestNavigator_JumpTo(t *testing.T) {
	conv := fixtureConverter(t)
	n := navigatorAt(t, conv, 2081, 5, 7)

	require.NoError(t, n.JumpTo(2082, 3, 17))
	want := adOf(t, conv, 2082, 3, 17)
	assert.True(t, n.Anchor().SameDay(want))

	sel, ok := n.Selected()
	require.True(t, ok)
	assert.True(t, sel.SameDay(want))

	y, m := displayed(t, n)
	assert.Equal(t, 2082, y)
	assert.Equal(t, 3, m)

	n.ClearSelection()
	_, ok = n.Selected()
	assert.False(t, ok)
}

// TestNavigator_RangeBoundary verifies failed transitions leave the state
// untouched.
func TestNavigator_RangeBoundary(t *testing.T) {
	conv := fixtureConverter(t)

	tests := []struct {
		name  string
		start [3]int
		move  func(n *engine.Navigator) error
	}{
		{"previous before window", [3]int{2080, 1, 5}, (*engine.Navigator).Previous},
		{"next into unmeasurable month", [3]int{2082, 11, 5}, (*engine.Navigator).Next},
		{"jump to year 1", [3]int{2081, 6, 1}, func(n *engine.Navigator) error { return n.JumpTo(1, 1, 1) }},
		{"jump to missing day", [3]int{2081, 6, 1}, func(n *engine.Navigator) error { return n.JumpTo(2081, 9, 30) }},
		{"jump into last month", [3]int{2081, 6, 1}, func(n *engine.Navigator) error { return n.JumpTo(2082, 12, 1) }},
		{"previous into month without predecessor", [3]int{2080, 2, 10}, (*engine.Navigator).Previous},
		{"jump into first month", [3]int{2081, 6, 1}, func(n *engine.Navigator) error { return n.JumpTo(2080, 1, 5) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := navigatorAt(t, conv, tt.start[0], tt.start[1], tt.start[2])
			n.Select(bs.NewDate(2024, 1, 1))
			before := n.Anchor()

			err := tt.move(n)

			var rangeErr *bs.DateRangeError
			require.True(t, errors.As(err, &rangeErr), "got %v", err)
			assert.Equal(t, before, n.Anchor())
			sel, ok := n.Selected()
			require.True(t, ok)
			assert.Equal(t, "2024-01-01", sel.String())
		})
	}
}

// TestNavigator_EveryReachableMonthBuilds walks the fixture window in both
// directions and builds each month the navigator accepts.
func TestNavigator_EveryReachableMonthBuilds(t *testing.T) {
	conv := fixtureConverter(t)
	g := engine.NewGridBuilder(conv, bs.Date{})

	for _, dir := range []func(n *engine.Navigator) error{
		(*engine.Navigator).Next,
		(*engine.Navigator).Previous,
	} {
		n := navigatorAt(t, conv, 2081, 6, 1)
		for dir(n) == nil {
			_, err := g.BuildMonth(n.Anchor())
			require.NoError(t, err, "anchor %s", n.Anchor())
		}
	}

	n := navigatorAt(t, conv, 2081, 6, 1)
	for n.Previous() == nil {
	}
	y, m := displayed(t, n)
	assert.Equal(t, 2080, y)
	assert.Equal(t, 2, m)
}
