package bs

import "fmt"

// Range is the inclusive window of dates a Converter can handle, expressed in
// both calendars.
type Range struct {
	FirstBS Date `json:"firstBS"`
	LastBS  Date `json:"lastBS"`
	FirstAD Date `json:"firstAD"`
	LastAD  Date `json:"lastAD"`
}

// String renders the window in Bikram Sambat terms.
func (r Range) String() string {
	return fmt.Sprintf("%s..%s BS (%s..%s AD)", r.FirstBS, r.LastBS, r.FirstAD, r.LastAD)
}

// DateRangeError reports a date that cannot be converted: it lies outside the
// almanac window or does not exist in its calendar.
type DateRangeError struct {
	Requested Date
	Calendar  Calendar
	Supported Range
}

func (e *DateRangeError) Error() string {
	return fmt.Sprintf("bs: date %s %s outside supported range %s", e.Requested, e.Calendar, e.Supported)
}
