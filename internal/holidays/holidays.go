// Package holidays manages public holidays keyed by Bikram Sambat year:
// schema validation, persistence, remote loading and scheduled refresh.
package holidays

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"

	"github.com/tartampluch/go-miti/internal/config"
)

// ErrInvalidData is wrapped by every schema violation.
var ErrInvalidData = errors.New("invalid holiday data")

var (
	yearPattern = regexp.MustCompile(`^\d{4}$`)
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Holiday is a named BS date.
type Holiday struct {
	Name        string `json:"name"`
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
}

// Storage maps a four-digit BS year to its holidays.
type Storage map[string][]Holiday

// Years returns the years held, ascending.
func (s Storage) Years() []string {
	years := make([]string, 0, len(s))
	for y := range s {
		years = append(years, y)
	}
	sort.Strings(years)
	return years
}

// Count returns the total number of holidays.
func (s Storage) Count() int {
	n := 0
	for _, list := range s {
		n += len(list)
	}
	return n
}

// Validate checks typed holiday data.
func Validate(s Storage) error {
	for _, year := range s.Years() {
		if !yearPattern.MatchString(year) {
			return fmt.Errorf("%w: invalid year format: %s, must be 4 digits (e.g., 2082)", ErrInvalidData, year)
		}
		for _, h := range s[year] {
			if err := validateEntry(h, year); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateEntry(h Holiday, year string) error {
	if h.Name == "" {
		return fmt.Errorf("%w: holiday in year %s missing valid name field", ErrInvalidData, year)
	}
	if h.Date == "" {
		return fmt.Errorf("%w: holiday %q in year %s missing valid date field", ErrInvalidData, h.Name, year)
	}
	if !datePattern.MatchString(h.Date) {
		return fmt.Errorf("%w: holiday %q has invalid date format: %s, must be YYYY-MM-DD", ErrInvalidData, h.Name, h.Date)
	}
	if h.Date[:4] != year {
		return fmt.Errorf("%w: holiday %q date %s doesn't match year %s", ErrInvalidData, h.Name, h.Date, year)
	}
	return nil
}

// Parse decodes and validates a holiday JSON document of the form
// {"2082": [{"name": ..., "date": "2082-01-01", "description": ...}]}.
//
// Field types are checked on the untyped document so that, for example, a
// numeric name is rejected rather than silently dropped.
func Parse(r io.Reader) (Storage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrHolidayDecode, err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrHolidayDecode, err)
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	var s Storage
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrHolidayDecode, err)
	}
	if s == nil {
		s = Storage{}
	}
	return s, Validate(s)
}

func validateDocument(doc any) error {
	years, ok := doc.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: holiday data must be an object with year keys", ErrInvalidData)
	}

	keys := make([]string, 0, len(years))
	for k := range years {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, year := range keys {
		if !yearPattern.MatchString(year) {
			return fmt.Errorf("%w: invalid year format: %s, must be 4 digits (e.g., 2082)", ErrInvalidData, year)
		}
		list, ok := years[year].([]any)
		if !ok {
			return fmt.Errorf("%w: holidays for year %s must be an array", ErrInvalidData, year)
		}
		for _, item := range list {
			entry, _ := item.(map[string]any)
			name, _ := entry["name"].(string)
			if name == "" {
				return fmt.Errorf("%w: holiday in year %s missing valid name field", ErrInvalidData, year)
			}
			if _, ok := entry["date"].(string); !ok {
				return fmt.Errorf("%w: holiday %q in year %s missing valid date field", ErrInvalidData, name, year)
			}
			if d, present := entry["description"]; present {
				if _, ok := d.(string); !ok {
					return fmt.Errorf("%w: holiday %q has invalid description (must be string)", ErrInvalidData, name)
				}
			}
		}
	}
	return nil
}

// yearKey formats a BS year as a Storage key.
func yearKey(year int) string {
	return fmt.Sprintf("%04d", year)
}
