package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"subcal/internal/core"
)

func listCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List subscriptions, canceled ones included",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			subs, err := a.subs.List(cmd.Context(), a.owner)
			if err != nil {
				return err
			}
			return a.printer.Subscriptions(subs, a.subs.Today(), time.Now())
		},
	}
}

type addOptions struct {
	amount        string
	cycle         string
	dueDay        int
	currency      string
	color         string
	initial       string
	autopay       bool
	paymentSource string
	start         string
	end           string
}

func addCmd(a *app) *cobra.Command {
	o := &addOptions{}
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a subscription",
		Example: `  subcalctl add Netflix --amount 649 --due-day 5
  subcalctl add Figma --amount 1200 --cycle yearly --due-day 1 --start 2025-01-01`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := o.toSubscription(strings.Join(args, " "))
			if err != nil {
				return err
			}
			created, err := a.subs.Create(cmd.Context(), a.owner, sub)
			if err != nil {
				return err
			}
			if a.printer.JSON {
				return a.printer.PrintJSON(created)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s), due on the %s\n",
				created.Name, created.ID, core.Ordinal(created.DueDay))
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.amount, "amount", "", "charge amount, e.g. 199 or 12.50")
	f.StringVar(&o.cycle, "cycle", string(core.Monthly), "billing cycle (monthly, yearly)")
	f.IntVar(&o.dueDay, "due-day", 0, "day of month the charge lands (1-31)")
	f.StringVar(&o.currency, "currency", "", "ISO currency code (default $CURRENCY)")
	f.StringVar(&o.color, "color", "", "display color, default from the brand table")
	f.StringVar(&o.initial, "initial", "", "display initial, default from the brand table")
	f.BoolVar(&o.autopay, "autopay", false, "charge is paid automatically")
	f.StringVar(&o.paymentSource, "payment-source", "",
		"how the charge is paid: "+strings.Join(core.PaymentOptions, ", ")+", or any custom label (default "+core.DefaultPaymentSource+")")
	f.StringVar(&o.start, "start", "", "first active day (YYYY-MM-DD, default today)")
	f.StringVar(&o.end, "end", "", "last active day (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("due-day")
	return cmd
}

func (o *addOptions) toSubscription(name string) (core.Subscription, error) {
	amount, err := core.ParseAmount(o.amount)
	if err != nil {
		return core.Subscription{}, err
	}
	cycle, err := core.ParseCycle(o.cycle)
	if err != nil {
		return core.Subscription{}, err
	}
	start, err := core.ParseDate(o.start)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("--start: %w", err)
	}
	end, err := core.ParseDate(o.end)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("--end: %w", err)
	}
	return core.Subscription{
		Name:          name,
		Amount:        amount,
		Currency:      strings.ToUpper(o.currency),
		Cycle:         cycle,
		DueDay:        o.dueDay,
		Color:         o.color,
		Initial:       o.initial,
		Autopay:       o.autopay,
		PaymentSource: o.paymentSource,
		StartDate:     start,
		EndDate:       end,
	}, nil
}

func endCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "end <id>",
		Aliases: []string{"rm"},
		Short:   "End a subscription and remove it from every view",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.subs.End(cmd.Context(), a.owner, args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Ended %s\n", args[0])
			return err
		},
	}
}

func statsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show monthly spend and the yearly projection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.subs.Stats(cmd.Context(), a.owner)
			if err != nil {
				return err
			}
			return a.printer.Stats(st)
		},
	}
}

func calendarCmd(a *app) *cobra.Command {
	var year, month int
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Render a month grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			today := a.subs.Today()
			if year == 0 {
				year = today.Year()
			}
			if month == 0 {
				month = int(today.Month())
			}
			if month < 1 || month > 12 {
				return fmt.Errorf("--month must be between 1 and 12, got %d", month)
			}
			cal, err := a.subs.Month(cmd.Context(), a.owner, year, time.Month(month))
			if err != nil {
				return err
			}
			return a.printer.Month(cal)
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year (default current)")
	cmd.Flags().IntVar(&month, "month", 0, "month 1-12 (default current)")
	return cmd
}

func yearCmd(a *app) *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "year",
		Short: "Summarize every month of a year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if year == 0 {
				year = a.subs.Today().Year()
			}
			yc, err := a.subs.Year(cmd.Context(), a.owner, year)
			if err != nil {
				return err
			}
			return a.printer.Year(yc)
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year (default current)")
	return cmd
}

func remindersCmd(a *app) *cobra.Command {
	var day int
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Show what is due today and tomorrow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if day < 0 || day > 31 {
				return fmt.Errorf("--day must be between 1 and 31, got %d", day)
			}
			r, err := a.subs.Reminders(cmd.Context(), a.owner, day)
			if err != nil {
				return err
			}
			return a.printer.Reminders(r)
		},
	}
	cmd.Flags().IntVar(&day, "day", 0, "day of month to evaluate (default today)")
	return cmd
}

func brandCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "brand <name>",
		Short:       "Look up the display color and initial for a name",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{annotationNoStore: "true"},
		RunE: func(_ *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			return a.printer.Brand(name, core.LookupBrand(name), core.IsKnownBrand(name))
		},
	}
}
