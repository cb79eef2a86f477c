package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// HolidaySource describes where holiday data is refreshed from.
type HolidaySource struct {
	// URL points to a holiday JSON document (year -> holidays).
	URL string `yaml:"url"`
	// ICSURL optionally points to an iCalendar feed of all-day holidays.
	ICSURL string `yaml:"ics_url"`
	// User enables HTTP Basic Auth. The password is kept in the OS keyring.
	User string `yaml:"user"`
	// Refresh is a cron expression for periodic reloads.
	Refresh string `yaml:"refresh"`
}

// File is the on-disk application configuration.
type File struct {
	// Listen is the HTTP listen address of the local API.
	Listen string `yaml:"listen"`

	// DataDir holds the data store. Relative paths resolve against the
	// directory of the config file.
	DataDir string `yaml:"data_dir"`

	// Language selects the UI language (see SupportedLanguages).
	Language string `yaml:"language"`

	// AlmanacPath optionally replaces the embedded Bikram Sambat almanac.
	AlmanacPath string `yaml:"almanac_path,omitempty"`

	Holidays HolidaySource `yaml:"holidays"`

	// NoteReminder is an iCalendar TRIGGER duration (e.g. "PT9H" for 09:00
	// on the day) added as an alarm to note events of the feed. Empty
	// disables alarms.
	NoteReminder string `yaml:"note_reminder,omitempty"`

	// StorageQuota caps the data store size in bytes. Zero keeps
	// StorageQuotaBytes.
	StorageQuota int `yaml:"storage_quota,omitempty"`
}

// DefaultFile returns an in-memory default configuration.
func DefaultFile() *File {
	return &File{
		Listen:   DefaultListen,
		DataDir:  DefaultDataDirName,
		Language: DefaultLanguage,
		Holidays: HolidaySource{
			Refresh: DefaultHolidayRefresh,
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *File) Normalize() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDirName
	}
	supported := false
	for _, l := range SupportedLanguages {
		if c.Language == l {
			supported = true
			break
		}
	}
	if !supported {
		c.Language = DefaultLanguage
	}
	if c.Holidays.Refresh == "" {
		c.Holidays.Refresh = DefaultHolidayRefresh
	}
}

// ResolveDataDir returns DataDir as an absolute path, relative paths being
// anchored at the directory holding the config file.
func (c *File) ResolveDataDir(configPath string) string {
	if filepath.IsAbs(c.DataDir) {
		return c.DataDir
	}
	return filepath.Join(filepath.Dir(configPath), c.DataDir)
}

// DefaultConfigPath returns <UserConfigDir>/<AppID>/config.yaml.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", ErrConfigDir, err)
	}
	return filepath.Join(dir, AppID, ConfigFileName), nil
}

// Load reads the YAML configuration at path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned (created reports true).
//   - Otherwise the YAML is decoded and normalized.
func Load(path string) (*File, bool, error) {
	if path == "" {
		return nil, false, errors.New(ErrConfigPathEmpty)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultFile()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, false, err
			}
			return cfg, true, nil
		}
		return nil, false, fmt.Errorf("%s: %w", ErrConfigLoad, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, false, fmt.Errorf("%s: %w", ErrConfigLoad, err)
	}
	f.Normalize()
	return &f, false, nil
}

// Save writes cfg atomically (temp file + rename) with 0600 permissions.
func Save(path string, cfg *File) error {
	if path == "" {
		return errors.New(ErrConfigPathEmpty)
	}
	if cfg == nil {
		return errors.New(ErrConfigNil)
	}
	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}

// WriteFileAtomic writes data to a temp file in the target directory and
// renames it over path, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPermUserRWX); err != nil {
		return fmt.Errorf("%s: %w", ErrCreateDir, err)
	}

	tmp, err := os.CreateTemp(dir, ".miti-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, FilePermUserRW); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
