package holidays

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/tartampluch/go-miti/internal/bs"
	"github.com/tartampluch/go-miti/internal/config"
)

// PasswordFunc resolves the password of a source user.
type PasswordFunc func(user string) (string, error)

// Loader fills a Service from the configured sources.
type Loader struct {
	Service   *Service
	Fetcher   Fetcher
	Converter bs.Converter
	Source    config.HolidaySource
	Password  PasswordFunc
}

// Refresh reloads every configured source. A JSON source replaces all
// holidays; an ICS source then replaces the years it covers.
func (l *Loader) Refresh(ctx context.Context) error {
	if l.Source.URL == "" && l.Source.ICSURL == "" {
		return errors.New(config.ErrHolidaySource)
	}
	if l.Source.URL != "" {
		if err := l.LoadURL(ctx, l.Source.URL); err != nil {
			return err
		}
	}
	if l.Source.ICSURL != "" {
		if err := l.LoadICSURL(ctx, l.Source.ICSURL); err != nil {
			return err
		}
	}
	return nil
}

// LoadURL downloads a holiday JSON document and imports it.
func (l *Loader) LoadURL(ctx context.Context, url string) error {
	body, err := l.fetch(ctx, url)
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	data, err := Parse(body)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrHolidayLoad, err)
	}
	return l.Service.Import(data)
}

// LoadFile imports a local holiday document. Files ending in .ics are read
// as iCalendar, anything else as JSON.
func (l *Loader) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrHolidayLoad, err)
	}
	defer func() { _ = f.Close() }()

	if strings.EqualFold(extension(path), ".ics") {
		data, err := ParseICS(f, l.Converter)
		if err != nil {
			return fmt.Errorf("%s: %w", config.ErrHolidayLoad, err)
		}
		return l.merge(data)
	}

	data, err := Parse(f)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrHolidayLoad, err)
	}
	return l.Service.Import(data)
}

// LoadICSURL downloads an iCalendar feed and stores its holidays, replacing
// the years it covers.
func (l *Loader) LoadICSURL(ctx context.Context, url string) error {
	body, err := l.fetch(ctx, url)
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	data, err := ParseICS(body, l.Converter)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrHolidayLoad, err)
	}
	return l.merge(data)
}

// Load picks LoadFile or LoadURL depending on whether target is a URL.
func (l *Loader) Load(ctx context.Context, target string) error {
	if strings.HasPrefix(target, config.SchemeHTTP+"://") || strings.HasPrefix(target, config.SchemeHTTPS+"://") {
		if strings.EqualFold(extension(target), ".ics") {
			return l.LoadICSURL(ctx, target)
		}
		return l.LoadURL(ctx, target)
	}
	return l.LoadFile(target)
}

func (l *Loader) merge(data Storage) error {
	for _, year := range data.Years() {
		y, err := strconv.Atoi(year)
		if err != nil {
			return fmt.Errorf("%w: year %s", ErrInvalidData, year)
		}
		if err := l.Service.SaveYear(y, data[year]); err != nil {
			return err
		}
	}
	slog.Info(config.MsgHolidaysLoaded,
		config.LogKeyComponent, config.CompHolidays,
		config.LogKeyCount, data.Count(),
	)
	return nil
}

func (l *Loader) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	if l.Fetcher == nil {
		return nil, errors.New(config.ErrFetcherMissing)
	}
	pass := ""
	if l.Password != nil && l.Source.User != "" {
		p, err := l.Password(l.Source.User)
		if err != nil {
			slog.Warn(config.MsgPassFail,
				config.LogKeyComponent, config.CompHolidays,
				config.LogKeyError, err,
			)
		}
		pass = p
	}
	body, err := l.Fetcher.Fetch(ctx, url, l.Source.User, pass)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s: %w", config.ErrHolidayLoad, err)
	}
	return body, nil
}

func extension(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if i := strings.LastIndexByte(path, '.'); i >= 0 && !strings.ContainsRune(path[i:], '/') {
		return path[i:]
	}
	return ""
}
