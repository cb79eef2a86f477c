// Package i18n provides localized calendar labels backed by embedded
// go-i18n message files.
package i18n

import (
	"embed"
	"encoding/json"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-miti/internal/config"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Translator resolves message keys for one language.
type Translator struct {
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
	lang      string
	languages []string
	digits    []string
}

// New loads every embedded locale and selects lang, falling back to the
// default language when lang has no locale file.
func New(lang string) *Translator {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	t := &Translator{bundle: bundle}

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		if langCode == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}
		t.languages = append(t.languages, langCode)
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, langCode,
			config.LogKeyFile, name,
		)
	}
	slices.Sort(t.languages)

	if !slices.Contains(t.languages, lang) {
		lang = config.DefaultLanguage
	}
	t.lang = lang
	t.localizer = i18n.NewLocalizer(bundle, lang)
	t.digits = splitDigits(t.Msg(config.TKeyDigits))
	return t
}

// Lang returns the active language code.
func (t *Translator) Lang() string { return t.lang }

// Languages lists the loaded language codes.
func (t *Translator) Languages() []string { return slices.Clone(t.languages) }

// Msg translates key. Unknown keys are returned unchanged.
func (t *Translator) Msg(key string) string {
	return t.localize(&i18n.LocalizeConfig{MessageID: key})
}

// MsgData translates key with template data.
func (t *Translator) MsgData(key string, data map[string]any) string {
	return t.localize(&i18n.LocalizeConfig{MessageID: key, TemplateData: data})
}

// MsgCount translates a plural message; the template receives Count.
func (t *Translator) MsgCount(key string, count int) string {
	return t.localize(&i18n.LocalizeConfig{
		MessageID:    key,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": t.Number(count)},
	})
}

// MonthName returns the name of a BS month (1..12).
func (t *Translator) MonthName(month int) string {
	return t.Msg(config.TKeyMonthPrefix + strconv.Itoa(month))
}

// WeekdayShort returns the abbreviated weekday label.
func (t *Translator) WeekdayShort(d time.Weekday) string {
	return t.Msg(config.TKeyWeekdayPrefix + strconv.Itoa(int(d)))
}

// Number renders n with the language's digit glyphs.
func (t *Translator) Number(n int) string {
	s := strconv.Itoa(n)
	if len(t.digits) != 10 {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteString(t.digits[r-'0'])
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (t *Translator) localize(lc *i18n.LocalizeConfig) string {
	// A message missing in the active language still comes back in the
	// default language, together with an error.
	msg, err := t.localizer.Localize(lc)
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, lc.MessageID,
			config.LogKeyError, err,
		)
	}
	if msg == "" {
		return lc.MessageID
	}
	return msg
}

func splitDigits(s string) []string {
	var out []string
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
