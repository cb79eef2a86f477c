package holidays

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/tartampluch/go-miti/internal/bs"
	"github.com/tartampluch/go-miti/internal/config"
	"github.com/tartampluch/go-miti/internal/store"
)

// Service persists holidays under a single store key.
type Service struct {
	Store *store.Store
}

// All returns every stored holiday.
func (s *Service) All() (Storage, error) {
	out := Storage{}
	if _, err := s.Store.Get(config.KeyHolidays, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ForDate returns the first holiday on the BS date d.
func (s *Service) ForDate(d bs.Date) (Holiday, bool, error) {
	list, err := s.ForYear(d.Year)
	if err != nil {
		return Holiday{}, false, err
	}
	key := d.String()
	for _, h := range list {
		if h.Date == key {
			return h, true, nil
		}
	}
	return Holiday{}, false, nil
}

// ForYear returns the holidays of a BS year.
func (s *Service) ForYear(year int) ([]Holiday, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}
	return all[yearKey(year)], nil
}

// ForMonth returns the holidays of a BS month keyed by YYYY-MM-DD. When a
// date carries several entries the first one wins.
func (s *Service) ForMonth(year, month int) (map[string]Holiday, error) {
	list, err := s.ForYear(year)
	if err != nil {
		return nil, err
	}
	prefix := fmt.Sprintf("%04d-%02d-", year, month)
	out := make(map[string]Holiday)
	for _, h := range list {
		if !strings.HasPrefix(h.Date, prefix) {
			continue
		}
		if _, dup := out[h.Date]; !dup {
			out[h.Date] = h
		}
	}
	return out, nil
}

// IsHoliday reports whether d is a holiday. Read errors count as "no".
func (s *Service) IsHoliday(d bs.Date) bool {
	_, ok, err := s.ForDate(d)
	return err == nil && ok
}

// SaveYear replaces the holidays of one year.
func (s *Service) SaveYear(year int, list []Holiday) error {
	key := yearKey(year)
	if err := Validate(Storage{key: list}); err != nil {
		return err
	}
	all, err := s.All()
	if err != nil {
		return err
	}
	all[key] = list
	return s.Store.Set(config.KeyHolidays, all)
}

// Import replaces all holidays with data.
func (s *Service) Import(data Storage) error {
	if err := Validate(data); err != nil {
		return err
	}
	if err := s.Store.Set(config.KeyHolidays, data); err != nil {
		return err
	}
	slog.Info(config.MsgHolidaysLoaded,
		config.LogKeyComponent, config.CompHolidays,
		config.LogKeyCount, data.Count(),
	)
	return nil
}

// Clear removes every holiday.
func (s *Service) Clear() error {
	if err := s.Store.Set(config.KeyHolidays, Storage{}); err != nil {
		return err
	}
	slog.Info(config.MsgHolidaysCleared, config.LogKeyComponent, config.CompHolidays)
	return nil
}

// OnChange subscribes to holiday changes made by other processes.
func (s *Service) OnChange(cb func()) int {
	return s.Store.On(config.KeyHolidays, func(string, []byte, []byte) { cb() })
}
