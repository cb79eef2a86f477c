package bs

// Converter converts dates between the Bikram Sambat and Gregorian calendars.
// Implementations fail with *DateRangeError when a date is outside their
// supported window or does not exist.
type Converter interface {
	ToGregorian(d Date) (Date, error)
	ToBikramSambat(d Date) (Date, error)
}

// AlmanacConverter is a Converter backed by an Almanac table.
type AlmanacConverter struct {
	almanac *Almanac
	rng     Range
}

// NewConverter returns a Converter over the given almanac.
func NewConverter(a *Almanac) *AlmanacConverter {
	c := &AlmanacConverter{almanac: a}

	first, _ := a.date(0)
	last, _ := a.date(a.Days() - 1)
	firstAD := a.epoch
	lastAD := a.epoch.AddDate(0, 0, a.Days()-1)

	first.Weekday = firstAD.Weekday()
	last.Weekday = lastAD.Weekday()
	c.rng = Range{
		FirstBS: first,
		LastBS:  last,
		FirstAD: FromTime(firstAD),
		LastAD:  FromTime(lastAD),
	}
	return c
}

// Range returns the supported conversion window.
func (c *AlmanacConverter) Range() Range { return c.rng }

// Almanac returns the underlying table.
func (c *AlmanacConverter) Almanac() *Almanac { return c.almanac }

// ToGregorian converts a Bikram Sambat date to its Gregorian equivalent.
func (c *AlmanacConverter) ToGregorian(d Date) (Date, error) {
	off, ok := c.almanac.offset(d)
	if !ok {
		return Date{}, &DateRangeError{Requested: d, Calendar: BikramSambat, Supported: c.rng}
	}
	return FromTime(c.almanac.epoch.AddDate(0, 0, off)), nil
}

// ToBikramSambat converts a Gregorian date to its Bikram Sambat equivalent.
func (c *AlmanacConverter) ToBikramSambat(d Date) (Date, error) {
	if !ValidGregorian(d) {
		return Date{}, &DateRangeError{Requested: d, Calendar: Gregorian, Supported: c.rng}
	}
	t := d.Time()
	off := int(t.Sub(c.almanac.epoch).Hours() / 24)
	out, ok := c.almanac.date(off)
	if !ok || t.Before(c.almanac.epoch) {
		return Date{}, &DateRangeError{Requested: d, Calendar: Gregorian, Supported: c.rng}
	}
	out.Weekday = t.Weekday()
	return out, nil
}
