package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tartampluch/go-miti/internal/bs"
	"github.com/tartampluch/go-miti/internal/config"
	"github.com/tartampluch/go-miti/internal/engine"
	"github.com/tartampluch/go-miti/internal/holidays"
	"github.com/tartampluch/go-miti/internal/i18n"
	"github.com/tartampluch/go-miti/internal/notes"
	"github.com/tartampluch/go-miti/internal/settings"
	"github.com/tartampluch/go-miti/internal/store"
)

// app holds the services shared by the subcommands.
type app struct {
	cfg     *config.File
	cfgPath string

	clock      engine.Clock
	conv       *bs.AlmanacConverter
	store      *store.Store
	notes      *notes.Service
	settings   *settings.Service
	holidays   *holidays.Service
	translator *i18n.Translator
}

// openApp loads the configuration and opens the data store.
func openApp(flags *globalFlags) (*app, error) {
	clock := flags.clock
	path := flags.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return nil, err
		}
	}

	cfg, created, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if created {
		slog.Info(config.MsgConfigCreated, config.LogKeyComponent, config.CompMain, config.LogKeyPath, path)
	} else {
		slog.Debug(config.MsgConfigLoaded, config.LogKeyComponent, config.CompMain, config.LogKeyPath, path)
	}

	almanac, err := loadAlmanac(cfg.AlmanacPath)
	if err != nil {
		return nil, err
	}

	var opts []store.Option
	if cfg.StorageQuota > 0 {
		opts = append(opts, store.WithQuota(cfg.StorageQuota))
	}
	st, err := store.Open(filepath.Join(cfg.ResolveDataDir(path), config.StoreFileName), opts...)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:        cfg,
		cfgPath:    path,
		clock:      clock,
		conv:       bs.NewConverter(almanac),
		store:      st,
		notes:      notes.NewService(st, clock),
		settings:   &settings.Service{Store: st},
		holidays:   &holidays.Service{Store: st},
		translator: i18n.New(cfg.Language),
	}, nil
}

// loadAlmanac returns the bundled almanac unless path names a replacement.
func loadAlmanac(path string) (*bs.Almanac, error) {
	if path == "" {
		return bs.DefaultAlmanac(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrAlmanacLoad, err)
	}
	defer f.Close()

	a, err := bs.LoadAlmanac(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrAlmanacLoad, err)
	}
	return a, nil
}

// loader returns a holiday loader over the configured sources.
func (a *app) loader() *holidays.Loader {
	creds := settings.NewCredentials()
	return &holidays.Loader{
		Service:   a.holidays,
		Fetcher:   holidays.NewHTTPFetcher(),
		Converter: a.conv,
		Source:    a.cfg.Holidays,
		Password:  creds.Password,
	}
}

// hasHolidaySource reports whether a remote holiday source is configured.
func (a *app) hasHolidaySource() bool {
	return a.cfg.Holidays.URL != "" || a.cfg.Holidays.ICSURL != ""
}

// parseBSDate parses a BS date argument and checks it exists.
func (a *app) parseBSDate(s string) (bs.Date, error) {
	d, err := bs.ParseDate(s)
	if err != nil {
		return bs.Date{}, err
	}
	if _, err := a.conv.ToGregorian(d); err != nil {
		return bs.Date{}, err
	}
	return d, nil
}

// todayBS returns today's Bikram Sambat date.
func (a *app) todayBS() (bs.Date, error) {
	return a.conv.ToBikramSambat(engine.Today(a.clock))
}
