package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-miti/internal/bs"
	"github.com/tartampluch/go-miti/internal/config"
	"github.com/tartampluch/go-miti/internal/engine"
	"github.com/tartampluch/go-miti/internal/holidays"
	"github.com/tartampluch/go-miti/internal/i18n"
	"github.com/tartampluch/go-miti/internal/render"
)

func newMonthCmd(flags *globalFlags) *cobra.Command {
	var (
		date   string
		offset int
		lang   string
	)
	cmd := &cobra.Command{
		Use:   config.CmdMonth,
		Short: config.CmdDescMonth,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(flags)
			if err != nil {
				return err
			}
			tr := a.translator
			if lang != "" {
				tr = i18n.New(lang)
			}
			out, err := monthOutput(a, tr, date, offset)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&date, config.FlagDate, "", config.FlagDescDate)
	cmd.Flags().IntVar(&offset, config.FlagOffset, 0, config.FlagDescOffset)
	cmd.Flags().StringVar(&lang, config.FlagLanguage, "", config.FlagDescLanguage)
	return cmd
}

// monthOutput navigates from today (or from the Gregorian date), moves by
// offset months and renders the result.
func monthOutput(a *app, tr *i18n.Translator, date string, offset int) (string, error) {
	nav := engine.NewNavigator(a.conv, a.clock)

	if date != "" {
		ad, err := bs.ParseDate(date)
		if err != nil {
			return "", err
		}
		d, err := a.conv.ToBikramSambat(ad)
		if err != nil {
			return "", err
		}
		if err := nav.JumpTo(d.Year, d.Month, d.Day); err != nil {
			return "", err
		}
	}

	step := nav.Next
	if offset < 0 {
		step, offset = nav.Previous, -offset
	}
	for range offset {
		if err := step(); err != nil {
			return "", err
		}
	}

	month, err := engine.NewGridBuilder(a.conv, nav.Today()).BuildMonth(nav.Anchor())
	if err != nil {
		return "", err
	}

	opts, err := decorations(a, month)
	if err != nil {
		return "", err
	}
	opts.Translator = tr
	if sel, ok := nav.Selected(); ok {
		if d, err := a.conv.ToBikramSambat(sel); err == nil {
			opts.Selected = &d
		}
	}

	out := render.MonthString(month, opts)
	if !a.store.CheckUsage() {
		est := a.store.Estimate()
		out += fmt.Sprintf(config.OutStorageWarning, tr.MsgData(config.TKeyStorageWarn, map[string]any{
			"Percent": fmt.Sprintf("%.1f", est.Percentage),
		}))
	}
	return out, nil
}

// decorations collects notes, holidays and the weekend rule for every month
// the grid shows cells of, spillover days included.
func decorations(a *app, month engine.CalendarMonth) (render.Options, error) {
	counts := make(map[string]int)
	hol := make(map[string]holidays.Holiday)
	for _, ym := range month.SpannedMonths() {
		byDay, err := a.notes.ForMonth(ym.Year, ym.Month)
		if err != nil {
			return render.Options{}, err
		}
		for day, list := range byDay {
			counts[day] = len(list)
		}

		days, err := a.holidays.ForMonth(ym.Year, ym.Month)
		if err != nil {
			return render.Options{}, err
		}
		for day, h := range days {
			hol[day] = h
		}
	}

	cur, err := a.settings.Get()
	if err != nil {
		return render.Options{}, err
	}

	return render.Options{
		NoteCounts: counts,
		Holidays:   hol,
		IsWeekend:  cur.IsWeekendDay,
		Legend:     true,
	}, nil
}
