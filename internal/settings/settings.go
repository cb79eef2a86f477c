// Package settings persists user preferences (weekend rule, sidebar, theme)
// in the data store and holds the holiday source password in the OS keyring.
package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/tartampluch/go-miti/internal/config"
	"github.com/tartampluch/go-miti/internal/store"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid settings")

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Settings are the user preferences shared by every surface.
type Settings struct {
	Weekend         string `json:"weekend"`
	SidebarPosition string `json:"sidebarPosition"`
	SidebarEnabled  bool   `json:"sidebarEnabled"`
	ThemeType       string `json:"themeType"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	BackgroundImage string `json:"backgroundImage,omitempty"`
}

// Defaults returns the settings applied on first run.
func Defaults() Settings {
	return Settings{
		Weekend:         config.WeekendSaturday,
		SidebarPosition: config.SidebarRight,
		SidebarEnabled:  true,
		ThemeType:       config.ThemeNone,
	}
}

// Validate checks enumerated values and the background color format.
func (s Settings) Validate() error {
	switch s.Weekend {
	case config.WeekendSunday, config.WeekendSaturday, config.WeekendBoth:
	default:
		return fmt.Errorf("%w: weekend %q", ErrInvalid, s.Weekend)
	}
	switch s.SidebarPosition {
	case config.SidebarLeft, config.SidebarRight:
	default:
		return fmt.Errorf("%w: sidebar position %q", ErrInvalid, s.SidebarPosition)
	}
	switch s.ThemeType {
	case config.ThemeNone:
	case config.ThemeColor:
		if s.BackgroundColor != "" && !hexColor.MatchString(s.BackgroundColor) {
			return fmt.Errorf("%w: background color %q", ErrInvalid, s.BackgroundColor)
		}
	case config.ThemeImage:
		if s.BackgroundImage == "" {
			return fmt.Errorf("%w: image theme without background image", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: theme %q", ErrInvalid, s.ThemeType)
	}
	return nil
}

// IsWeekendDay reports whether d is a weekend day under the configured rule.
func (s Settings) IsWeekendDay(d time.Weekday) bool {
	switch s.Weekend {
	case config.WeekendSunday:
		return d == time.Sunday
	case config.WeekendSaturday:
		return d == time.Saturday
	case config.WeekendBoth:
		return d == time.Sunday || d == time.Saturday
	default:
		return false
	}
}

// Service reads and writes Settings in a Store.
type Service struct {
	Store *store.Store
}

// Get returns the stored settings merged over the defaults, so that keys
// added in later versions get their default value.
func (s *Service) Get() (Settings, error) {
	out := Defaults()
	if _, err := s.Store.Get(config.KeySettings, &out); err != nil {
		return Defaults(), err
	}
	return out, nil
}

// Update applies fn to the current settings, validates and saves them.
func (s *Service) Update(fn func(*Settings)) (Settings, error) {
	cur, err := s.Get()
	if err != nil {
		return Settings{}, err
	}
	fn(&cur)
	if err := cur.Validate(); err != nil {
		return Settings{}, err
	}
	if err := s.Store.Set(config.KeySettings, cur); err != nil {
		return Settings{}, err
	}
	slog.Info(config.MsgSettingsSaved,
		config.LogKeyComponent, config.CompSettings,
		config.LogKeyValue, cur.Weekend,
	)
	return cur, nil
}

// Reset stores the defaults.
func (s *Service) Reset() error {
	if err := s.Store.Set(config.KeySettings, Defaults()); err != nil {
		return err
	}
	slog.Info(config.MsgSettingsReset, config.LogKeyComponent, config.CompSettings)
	return nil
}

// IsWeekendDay evaluates the stored weekend rule. Unreadable settings fall
// back to the defaults.
func (s *Service) IsWeekendDay(d time.Weekday) bool {
	cur, err := s.Get()
	if err != nil {
		slog.Warn(config.ErrStoreDecode,
			config.LogKeyComponent, config.CompSettings,
			config.LogKeyError, err,
		)
	}
	return cur.IsWeekendDay(d)
}

// OnChange subscribes to settings changes made by other processes.
func (s *Service) OnChange(cb func(Settings)) int {
	return s.Store.On(config.KeySettings, func(string, []byte, []byte) {
		cur, err := s.Get()
		if err != nil {
			return
		}
		cb(cur)
	})
}
