package engine

import (
	"log/slog"

	"github.com/tartampluch/go-miti/internal/bs"
	"github.com/tartampluch/go-miti/internal/config"
)

// Navigator holds which month is displayed. The anchor is a Gregorian date
// rather than a month index so that repeated moves never drift across the
// uneven Bikram Sambat month lengths.
//
// A Navigator has a single owner (the application shell) and is not safe for
// concurrent use; every transition either applies completely or leaves the
// state untouched.
type Navigator struct {
	math     Math
	anchor   bs.Date
	today    bs.Date
	selected *bs.Date
}

// NewNavigator creates the navigation state, reading the clock once. "Today"
// does not advance for the lifetime of the Navigator.
func NewNavigator(conv bs.Converter, clock Clock) *Navigator {
	today := Today(clock)
	return &Navigator{
		math:   Math{Converter: conv},
		anchor: today,
		today:  today,
	}
}

// Anchor returns the Gregorian date that selects the displayed month.
func (n *Navigator) Anchor() bs.Date { return n.anchor }

// Today returns the session's fixed current day (Gregorian).
func (n *Navigator) Today() bs.Date { return n.today }

// Selected returns the selected day, if any.
func (n *Navigator) Selected() (bs.Date, bool) {
	if n.selected == nil {
		return bs.Date{}, false
	}
	return *n.selected, true
}

// Select marks a Gregorian day as selected without moving the anchor.
func (n *Navigator) Select(d bs.Date) { n.selected = &d }

// ClearSelection drops the selected day.
func (n *Navigator) ClearSelection() { n.selected = nil }

// Displayed returns the Bikram Sambat year and month currently displayed.
func (n *Navigator) Displayed() (int, int, error) {
	d, err := n.math.Converter.ToBikramSambat(n.anchor)
	if err != nil {
		return 0, 0, err
	}
	return d.Year, d.Month, nil
}

// Next moves to day 1 of the following Bikram Sambat month.
func (n *Navigator) Next() error {
	return n.step(config.NavNext, NextMonth)
}

// Previous moves to day 1 of the preceding Bikram Sambat month.
func (n *Navigator) Previous() error {
	return n.step(config.NavPrevious, PreviousMonth)
}

// ResetToday moves back to the month containing the session's today.
func (n *Navigator) ResetToday() {
	n.anchor = n.today
	n.logMove(config.NavToday)
}

// JumpTo anchors the display on an exact Bikram Sambat day and selects it.
func (n *Navigator) JumpTo(year, month, day int) error {
	ad, err := n.math.Converter.ToGregorian(bs.NewDate(year, month, day))
	if err != nil {
		n.logReject(config.NavJump, err)
		return err
	}
	if _, err := n.math.layout(year, month); err != nil {
		n.logReject(config.NavJump, err)
		return err
	}
	n.anchor = ad
	n.selected = &ad
	n.logMove(config.NavJump)
	return nil
}

// step resolves the target month's whole grid, spillover included, before
// touching the anchor.
func (n *Navigator) step(action string, move func(year, month int) (int, int)) error {
	cur, err := n.math.Converter.ToBikramSambat(n.anchor)
	if err != nil {
		n.logReject(action, err)
		return err
	}
	y, m := move(cur.Year, cur.Month)

	first, err := n.math.Converter.ToGregorian(bs.NewDate(y, m, 1))
	if err != nil {
		n.logReject(action, err)
		return err
	}
	if _, err := n.math.layout(y, m); err != nil {
		n.logReject(action, err)
		return err
	}

	n.anchor = first
	n.logMove(action)
	return nil
}

func (n *Navigator) logMove(action string) {
	slog.Debug(config.MsgNavigated,
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyAction, action,
		config.LogKeyAnchor, n.anchor.String(),
	)
}

func (n *Navigator) logReject(action string, err error) {
	slog.Debug(config.MsgNavRejected,
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyAction, action,
		config.LogKeyAnchor, n.anchor.String(),
		config.LogKeyError, err,
	)
}
