package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-miti/internal/bs"
	"github.com/tartampluch/go-miti/internal/config"
	"github.com/tartampluch/go-miti/internal/feed"
	"github.com/tartampluch/go-miti/internal/holidays"
	"github.com/tartampluch/go-miti/internal/server"
	"github.com/tartampluch/go-miti/internal/settings"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdServe,
		Short: config.CmdDescServe,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logStartupInfo()
			a, err := openApp(flags)
			if err != nil {
				return err
			}
			if err := runServe(cmd.Context(), a); err != nil {
				return err
			}
			slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
			return nil
		},
	}
}

// runServe wires the HTTP server, the store watcher and the holiday
// scheduler, and blocks until ctx is cancelled.
func runServe(ctx context.Context, a *app) error {
	var refresh func(ctx context.Context) error
	loader := a.loader()
	if a.hasHolidaySource() {
		refresh = loader.Refresh
	}

	srv := server.New(server.Options{
		Listen:    a.cfg.Listen,
		Converter: a.conv,
		Clock:     a.clock,
		Store:     a.store,
		Notes:     a.notes,
		Settings:  a.settings,
		Holidays:  a.holidays,
		Feed: &feed.Generator{
			Notes:     a.notes,
			Holidays:  a.holidays,
			Converter: a.conv,
			Clock:     a.clock,
			Reminder:  a.cfg.NoteReminder,
		},
		Translator:      a.translator,
		RefreshHolidays: refresh,
	})

	rebuild := func() {
		if err := srv.RefreshFeed(ctx); err != nil {
			slog.Warn(config.ErrFeedBuild,
				config.LogKeyComponent, config.CompMain,
				config.LogKeyError, err,
			)
		}
	}
	rebuild()

	// Edits made by another process reach us through the watcher.
	a.notes.OnChange(func(bs.Date) { rebuild() })
	a.holidays.OnChange(rebuild)
	// Month views read settings per request; only record the change.
	a.settings.OnChange(func(s settings.Settings) {
		slog.Info(config.MsgStoreReloaded,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyKey, config.KeySettings,
			config.LogKeyValue, s.Weekend,
		)
	})
	if err := a.store.Watch(ctx); err != nil {
		return err
	}
	a.store.CheckUsage()

	if refresh != nil {
		sched, err := holidays.NewScheduler(a.cfg.Holidays.Refresh, func(ctx context.Context) error {
			if err := refresh(ctx); err != nil {
				return err
			}
			rebuild()
			return nil
		})
		if err != nil {
			return err
		}
		sched.Start(ctx)
		defer sched.Stop()
	}

	return srv.Start(ctx)
}
