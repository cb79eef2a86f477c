// Package notes stores free-text notes attached to Bikram Sambat dates.
package notes

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/tartampluch/go-miti/internal/bs"
	"github.com/tartampluch/go-miti/internal/config"
	"github.com/tartampluch/go-miti/internal/engine"
	"github.com/tartampluch/go-miti/internal/store"
)

var (
	ErrEmptyText    = errors.New("note text cannot be empty")
	ErrTooLong      = fmt.Errorf("note exceeds %d character limit", config.MaxNoteLength)
	ErrNoteNotFound = errors.New("note not found")
)

// Note is a single note. Times are Unix milliseconds.
type Note struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	Created   int64  `json:"created"`
	Modified  int64  `json:"modified"`
}

// DayNotes groups the notes of one BS date.
type DayNotes struct {
	Date  bs.Date `json:"date"`
	Notes []Note  `json:"notes"`
}

// Service manages notes in a Store.
type Service struct {
	Store *store.Store
	Clock engine.Clock

	// NewID generates note identifiers. Defaults to random UUIDs.
	NewID func() string
}

// NewService returns a Service using UUIDv4 identifiers.
func NewService(s *store.Store, clock engine.Clock) *Service {
	return &Service{
		Store: s,
		Clock: clock,
		NewID: func() string { return uuid.NewString() },
	}
}

// Key returns the storage key of a BS date.
func Key(d bs.Date) string {
	return config.KeyNotesPrefix + d.String()
}

// ForDate returns the notes of d in insertion order.
func (s *Service) ForDate(d bs.Date) ([]Note, error) {
	return s.load(Key(d))
}

// ForMonth returns the non-empty note lists of a BS month keyed by
// YYYY-MM-DD.
func (s *Service) ForMonth(year, month int) (map[string][]Note, error) {
	prefix := fmt.Sprintf("%s%04d-%02d-", config.KeyNotesPrefix, year, month)
	out := make(map[string][]Note)
	for _, key := range s.Store.Keys(prefix) {
		list, err := s.load(key)
		if err != nil {
			return nil, err
		}
		if len(list) > 0 {
			out[strings.TrimPrefix(key, config.KeyNotesPrefix)] = list
		}
	}
	return out, nil
}

// Overview lists the days of a BS month that carry notes, latest day first.
func (s *Service) Overview(year, month int) ([]DayNotes, error) {
	byDay, err := s.ForMonth(year, month)
	if err != nil {
		return nil, err
	}
	days := make([]DayNotes, 0, len(byDay))
	for key, list := range byDay {
		d, err := bs.ParseDate(key)
		if err != nil {
			continue
		}
		days = append(days, DayNotes{Date: d, Notes: list})
	}
	sort.Slice(days, func(i, j int) bool { return days[j].Date.Before(days[i].Date) })
	return days, nil
}

// Add appends a note to d.
func (s *Service) Add(d bs.Date, text string) (Note, error) {
	text, err := validate(text)
	if err != nil {
		return Note{}, err
	}
	list, err := s.ForDate(d)
	if err != nil {
		return Note{}, err
	}

	now := s.Clock.Now().UnixMilli()
	n := Note{ID: s.NewID(), Text: text, Timestamp: now, Created: now, Modified: now}
	list = append(list, n)
	if err := s.Store.Set(Key(d), list); err != nil {
		return Note{}, err
	}

	slog.Info(config.MsgNoteAdded,
		config.LogKeyComponent, config.CompNotes,
		config.LogKeyDate, d.String(),
		config.LogKeyNoteID, n.ID,
	)
	s.Store.CheckUsage()
	return n, nil
}

// Update replaces the text of note id on d.
func (s *Service) Update(d bs.Date, id, text string) (Note, error) {
	text, err := validate(text)
	if err != nil {
		return Note{}, err
	}
	list, err := s.ForDate(d)
	if err != nil {
		return Note{}, err
	}

	i := indexOf(list, id)
	if i < 0 {
		return Note{}, fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	list[i].Text = text
	list[i].Modified = s.Clock.Now().UnixMilli()
	list[i].Timestamp = list[i].Modified
	if err := s.Store.Set(Key(d), list); err != nil {
		return Note{}, err
	}

	slog.Info(config.MsgNoteUpdated,
		config.LogKeyComponent, config.CompNotes,
		config.LogKeyDate, d.String(),
		config.LogKeyNoteID, id,
	)
	return list[i], nil
}

// Delete removes note id from d. The key disappears with the last note.
func (s *Service) Delete(d bs.Date, id string) error {
	list, err := s.ForDate(d)
	if err != nil {
		return err
	}
	i := indexOf(list, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	list = append(list[:i], list[i+1:]...)
	if err := s.save(d, list); err != nil {
		return err
	}

	slog.Info(config.MsgNoteDeleted,
		config.LogKeyComponent, config.CompNotes,
		config.LogKeyDate, d.String(),
		config.LogKeyNoteID, id,
	)
	return nil
}

// DeleteAll removes every note of d and returns how many there were.
func (s *Service) DeleteAll(d bs.Date) (int, error) {
	list, err := s.ForDate(d)
	if err != nil {
		return 0, err
	}
	if len(list) == 0 {
		return 0, nil
	}
	if err := s.Store.Delete(Key(d)); err != nil {
		return 0, err
	}
	return len(list), nil
}

// HasNotes reports whether d carries at least one note.
func (s *Service) HasNotes(d bs.Date) bool {
	n, err := s.Count(d)
	return err == nil && n > 0
}

// Count returns the number of notes on d.
func (s *Service) Count(d bs.Date) (int, error) {
	list, err := s.ForDate(d)
	return len(list), err
}

// OnChange subscribes to note changes made by other processes. The callback
// receives the BS date whose notes changed.
func (s *Service) OnChange(cb func(bs.Date)) int {
	return s.Store.On(config.KeyNotesPrefix, func(key string, _, _ []byte) {
		d, err := bs.ParseDate(strings.TrimPrefix(key, config.KeyNotesPrefix))
		if err != nil {
			return
		}
		cb(d)
	})
}

// Preview shortens text to at most limit characters followed by "...".
func Preview(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	r := []rune(text)
	return string(r[:limit]) + "..."
}

func (s *Service) load(key string) ([]Note, error) {
	var list []Note
	if _, err := s.Store.Get(key, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Service) save(d bs.Date, list []Note) error {
	if len(list) == 0 {
		return s.Store.Delete(Key(d))
	}
	return s.Store.Set(Key(d), list)
}

// validate checks the raw length and returns the trimmed text.
func validate(text string) (string, error) {
	if utf8.RuneCountInString(text) > config.MaxNoteLength {
		return "", ErrTooLong
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}
	return text, nil
}

func indexOf(list []Note, id string) int {
	for i, n := range list {
		if n.ID == id {
			return i
		}
	}
	return -1
}
