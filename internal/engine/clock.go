package engine

import (
	"time"

	"github.com/tartampluch/go-miti/internal/bs"
)

// Clock abstracts time.Now() to allow deterministic testing.
// The Navigator reads it exactly once, at startup, to fix "today".
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Today returns the local calendar day of the clock as a Gregorian date.
// The local date is used, not UTC: at 00:30 in Kathmandu it is already
// tomorrow for the user even if UTC still says today.
func Today(c Clock) bs.Date {
	return bs.FromTime(c.Now())
}
