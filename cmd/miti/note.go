package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-miti/internal/config"
	"github.com/tartampluch/go-miti/internal/notes"
)

func newNoteCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   config.CmdNote,
		Short: config.CmdDescNote,
	}

	add := &cobra.Command{
		Use:   config.CmdNoteAdd,
		Short: config.CmdDescNoteAdd,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(flags)
			if err != nil {
				return err
			}
			d, err := a.parseBSDate(args[0])
			if err != nil {
				return err
			}
			n, err := a.notes.Add(d, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), config.OutNoteAdded, n.ID, d)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   config.CmdNoteList,
		Short: config.CmdDescNoteList,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(flags)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			if len(args) == 1 {
				d, err := a.parseBSDate(args[0])
				if err != nil {
					return err
				}
				list, err := a.notes.ForDate(d)
				if err != nil {
					return err
				}
				for _, n := range list {
					fmt.Fprintf(w, config.OutNoteLine, n.ID, notes.Preview(n.Text, config.NotePreviewLength))
				}
				return nil
			}

			today, err := a.todayBS()
			if err != nil {
				return err
			}
			days, err := a.notes.Overview(today.Year, today.Month)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, a.translator.Msg(config.TKeyNotesMonth))
			if len(days) == 0 {
				fmt.Fprintln(w, a.translator.Msg(config.TKeyNoNotes))
			}
			for _, day := range days {
				fmt.Fprintf(w, config.OutDayLine, day.Date, a.translator.MsgCount(config.TKeyNoteCount, len(day.Notes)))
			}
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   config.CmdNoteRm,
		Short: config.CmdDescNoteRm,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(flags)
			if err != nil {
				return err
			}
			d, err := a.parseBSDate(args[0])
			if err != nil {
				return err
			}
			deleted := 1
			if len(args) == 2 {
				err = a.notes.Delete(d, args[1])
			} else {
				deleted, err = a.notes.DeleteAll(d)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), config.OutNotesDeleted, deleted)
			return nil
		},
	}

	cmd.AddCommand(add, list, rm)
	return cmd
}
