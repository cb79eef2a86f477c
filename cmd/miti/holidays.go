package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-miti/internal/config"
	"github.com/tartampluch/go-miti/internal/settings"
)

func newHolidaysCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   config.CmdHolidays,
		Short: config.CmdDescHolidays,
	}

	load := &cobra.Command{
		Use:   config.CmdHolidaysLoad,
		Short: config.CmdDescHolidaysLoad,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(flags)
			if err != nil {
				return err
			}
			if err := a.loader().Load(cmd.Context(), args[0]); err != nil {
				return err
			}
			return printHolidayTotals(cmd, a)
		},
	}

	refresh := &cobra.Command{
		Use:   config.CmdHolidaysRefresh,
		Short: config.CmdDescHolidaysRef,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(flags)
			if err != nil {
				return err
			}
			if err := a.loader().Refresh(cmd.Context()); err != nil {
				return err
			}
			return printHolidayTotals(cmd, a)
		},
	}

	list := &cobra.Command{
		Use:   config.CmdHolidaysList,
		Short: config.CmdDescHolidaysList,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(flags)
			if err != nil {
				return err
			}
			var year int
			if len(args) == 1 {
				if year, err = strconv.Atoi(args[0]); err != nil {
					return err
				}
			} else {
				today, err := a.todayBS()
				if err != nil {
					return err
				}
				year = today.Year
			}
			list, err := a.holidays.ForYear(year)
			if err != nil {
				return err
			}
			for _, h := range list {
				fmt.Fprintf(cmd.OutOrStdout(), config.OutHolidayLine, h.Date, h.Name)
			}
			return nil
		},
	}

	var remove bool
	password := &cobra.Command{
		Use:   config.CmdHolidaysPassword,
		Short: config.CmdDescHolidaysPass,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(flags)
			if err != nil {
				return err
			}
			user := a.cfg.Holidays.User
			if user == "" {
				return fmt.Errorf("%s: holidays.user is empty", config.ErrHolidaySource)
			}
			creds := settings.NewCredentials()
			if remove {
				if err := creds.DeletePassword(user); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), config.OutPasswordGone, user)
				return nil
			}

			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return err
			}
			if err := creds.SetPassword(user, strings.TrimRight(line, "\r\n")); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), config.OutPasswordSaved, user)
			return nil
		},
	}
	password.Flags().BoolVar(&remove, config.FlagDelete, false, config.FlagDescDelete)

	cmd.AddCommand(load, refresh, list, password)
	return cmd
}

func printHolidayTotals(cmd *cobra.Command, a *app) error {
	all, err := a.holidays.All()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), config.OutHolidaysLoaded, all.Count(), len(all.Years()))
	return nil
}
