package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/campsite/internal/booking"
	"github.com/example/campsite/internal/calendar"
	"github.com/example/campsite/internal/config"
)

var errEphemeralStore = errors.New("STORE_DRIVER=memory does not keep reservations between commands; use the server or a database store")

// openDurableApp is openApp for commands that write: a memory store would drop the change on exit.
func openDurableApp(ctx context.Context) (*app, error) {
	a, err := openApp(ctx, false)
	if err != nil {
		return nil, err
	}
	if a.cfg.StoreDriver == config.StoreMemory {
		a.Close()
		return nil, errEphemeralStore
	}
	return a, nil
}

func newAvailabilityCmd() *cobra.Command {
	var start, end string

	c := &cobra.Command{
		Use:   "availability",
		Short: "List free days between --start and --end (end defaults to one month from today)",
		Long: "List free days between --start and --end (end defaults to one month from today).\n" +
			"With STORE_DRIVER=memory every day in the window is reported free, since nothing persists between commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := parseDateFlag("start", start)
			if err != nil {
				return err
			}
			var e *calendar.Date
			if end != "" {
				d, err := parseDateFlag("end", end)
				if err != nil {
					return err
				}
				e = &d
			}

			a, err := openApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			days, err := a.projector.Query(cmd.Context(), s, e)
			if err != nil {
				return err
			}
			for _, d := range days {
				fmt.Fprintln(cmd.OutOrStdout(), d)
			}
			return nil
		},
	}

	c.Flags().StringVar(&start, "start", "", "first day YYYY-MM-DD")
	c.Flags().StringVar(&end, "end", "", "last day YYYY-MM-DD (optional)")
	_ = c.MarkFlagRequired("start")
	return c
}

func newBookCmd() *cobra.Command {
	var name, email, start, end string

	c := &cobra.Command{
		Use:   "book",
		Short: "Reserve the campsite from --start to --end inclusive",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := parseDateFlag("start", start)
			if err != nil {
				return err
			}
			e, err := parseDateFlag("end", end)
			if err != nil {
				return err
			}

			a, err := openDurableApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.engine.Create(cmd.Context(), strings.TrimSpace(name), strings.TrimSpace(email), s, e)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "booked id=%s start=%s end=%s\n", id, s, e)
			return nil
		},
	}

	c.Flags().StringVar(&name, "name", "", "guest name")
	c.Flags().StringVar(&email, "email", "", "guest email")
	c.Flags().StringVar(&start, "start", "", "arrival day YYYY-MM-DD")
	c.Flags().StringVar(&end, "end", "", "last night's day YYYY-MM-DD")
	for _, f := range []string{"name", "email", "start", "end"} {
		_ = c.MarkFlagRequired(f)
	}
	return c
}

func newUpdateCmd() *cobra.Command {
	var name, email, start, end string

	c := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a reservation's guest details or dates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := booking.ParseExternalID(args[0])
			if err != nil {
				return err
			}

			var ch booking.Changes
			flags := cmd.Flags()
			if flags.Changed("name") {
				v := strings.TrimSpace(name)
				ch.GuestName = &v
			}
			if flags.Changed("email") {
				v := strings.TrimSpace(email)
				ch.GuestContact = &v
			}
			if flags.Changed("start") {
				d, err := parseDateFlag("start", start)
				if err != nil {
					return err
				}
				ch.Start = &d
			}
			if flags.Changed("end") {
				d, err := parseDateFlag("end", end)
				if err != nil {
					return err
				}
				ch.End = &d
			}

			a, err := openDurableApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.engine.Update(cmd.Context(), id, ch); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated id=%s\n", id)
			return nil
		},
	}

	c.Flags().StringVar(&name, "name", "", "new guest name")
	c.Flags().StringVar(&email, "email", "", "new guest email")
	c.Flags().StringVar(&start, "start", "", "new arrival day YYYY-MM-DD")
	c.Flags().StringVar(&end, "end", "", "new last day YYYY-MM-DD")
	return c
}

func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a reservation and release its days",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := booking.ParseExternalID(args[0])
			if err != nil {
				return err
			}

			a, err := openDurableApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			cancelled, err := a.engine.Cancel(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cancelled id=%s\n", cancelled)
			return nil
		},
	}
}

func parseDateFlag(flag, v string) (calendar.Date, error) {
	d, err := calendar.Parse(strings.TrimSpace(v))
	if err != nil {
		return calendar.Date{}, fmt.Errorf("invalid --%s: %w", flag, err)
	}
	return d, nil
}
