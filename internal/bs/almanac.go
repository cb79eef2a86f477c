package bs

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinMonthDays and MaxMonthDays bound a Bikram Sambat month.
	MinMonthDays = 29
	MaxMonthDays = 32

	monthsPerYear = 12
)

//go:embed almanac.yaml
var defaultAlmanacYAML []byte

// Almanac holds the published month lengths of a contiguous run of Bikram
// Sambat years, anchored to the Gregorian date of the first year's 1 Baishakh.
type Almanac struct {
	firstYear int
	epoch     time.Time
	months    [][monthsPerYear]int
	// yearStart[i] is the day offset of 1 Baishakh of firstYear+i.
	// yearStart[len(months)] is the total number of days covered.
	yearStart []int
}

// almanacFile is the YAML shape of an almanac data file.
type almanacFile struct {
	Epoch struct {
		Year      int    `yaml:"year"`
		Gregorian string `yaml:"gregorian"`
	} `yaml:"epoch"`
	Years map[int][]int `yaml:"years"`
}

// NewAlmanac builds an almanac from the month lengths of consecutive years
// starting at firstYear, whose 1 Baishakh falls on the Gregorian date epoch.
func NewAlmanac(firstYear int, epoch time.Time, years [][monthsPerYear]int) (*Almanac, error) {
	if len(years) == 0 {
		return nil, errors.New("bs: almanac has no years")
	}
	y, m, d := epoch.Date()
	a := &Almanac{
		firstYear: firstYear,
		epoch:     time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		months:    make([][monthsPerYear]int, len(years)),
		yearStart: make([]int, len(years)+1),
	}
	copy(a.months, years)

	total := 0
	for i, lengths := range a.months {
		a.yearStart[i] = total
		for mi, n := range lengths {
			if n < MinMonthDays || n > MaxMonthDays {
				return nil, fmt.Errorf("bs: year %d month %d has %d days (want %d..%d)",
					firstYear+i, mi+1, n, MinMonthDays, MaxMonthDays)
			}
			total += n
		}
	}
	a.yearStart[len(a.months)] = total
	return a, nil
}

// LoadAlmanac decodes an almanac YAML document.
func LoadAlmanac(r io.Reader) (*Almanac, error) {
	var f almanacFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("bs: decode almanac: %w", err)
	}
	epoch, err := time.Parse(time.DateOnly, f.Epoch.Gregorian)
	if err != nil {
		return nil, fmt.Errorf("bs: almanac epoch: %w", err)
	}

	keys := make([]int, 0, len(f.Years))
	for y := range f.Years {
		keys = append(keys, y)
	}
	sort.Ints(keys)
	if len(keys) == 0 || keys[0] != f.Epoch.Year {
		return nil, fmt.Errorf("bs: almanac must start at epoch year %d", f.Epoch.Year)
	}

	years := make([][monthsPerYear]int, 0, len(keys))
	for i, y := range keys {
		if y != f.Epoch.Year+i {
			return nil, fmt.Errorf("bs: almanac year %d missing", f.Epoch.Year+i)
		}
		lengths := f.Years[y]
		if len(lengths) != monthsPerYear {
			return nil, fmt.Errorf("bs: almanac year %d has %d months", y, len(lengths))
		}
		var row [monthsPerYear]int
		copy(row[:], lengths)
		years = append(years, row)
	}
	return NewAlmanac(f.Epoch.Year, epoch, years)
}

// DefaultAlmanac returns the almanac bundled with the binary.
func DefaultAlmanac() *Almanac {
	a, err := LoadAlmanac(bytes.NewReader(defaultAlmanacYAML))
	if err != nil {
		panic(err)
	}
	return a
}

// FirstYear is the earliest Bikram Sambat year covered.
func (a *Almanac) FirstYear() int { return a.firstYear }

// LastYear is the latest Bikram Sambat year covered.
func (a *Almanac) LastYear() int { return a.firstYear + len(a.months) - 1 }

// Epoch is the Gregorian date of 1 Baishakh of FirstYear.
func (a *Almanac) Epoch() time.Time { return a.epoch }

// Days is the number of days covered by the almanac.
func (a *Almanac) Days() int { return a.yearStart[len(a.months)] }

// monthDays returns the table entry for (year, month) and whether it exists.
func (a *Almanac) monthDays(year, month int) (int, bool) {
	i := year - a.firstYear
	if i < 0 || i >= len(a.months) || month < 1 || month > monthsPerYear {
		return 0, false
	}
	return a.months[i][month-1], true
}

// offset returns the day offset of a BS date from the epoch.
func (a *Almanac) offset(d Date) (int, bool) {
	n, ok := a.monthDays(d.Year, d.Month)
	if !ok || d.Day < 1 || d.Day > n {
		return 0, false
	}
	i := d.Year - a.firstYear
	off := a.yearStart[i]
	for m := 0; m < d.Month-1; m++ {
		off += a.months[i][m]
	}
	return off + d.Day - 1, true
}

// date returns the BS date at a day offset from the epoch.
func (a *Almanac) date(off int) (Date, bool) {
	if off < 0 || off >= a.Days() {
		return Date{}, false
	}
	// First yearStart strictly greater than off, minus one.
	i := sort.SearchInts(a.yearStart, off+1) - 1
	rem := off - a.yearStart[i]
	m := 0
	for rem >= a.months[i][m] {
		rem -= a.months[i][m]
		m++
	}
	return Date{Year: a.firstYear + i, Month: m + 1, Day: rem + 1}, true
}
