package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"subcal/internal/core"
	applog "subcal/internal/log"
	"subcal/internal/notify"
)

func dispatchFields(date core.Date) applog.LogFields {
	return applog.NewFields().
		WithComponent(applog.ComponentReminder).
		WithOperation(applog.OpDispatch).
		With("date", date.String())
}

type (
	// DueLister loads records across owners by due day.
	DueLister interface {
		ListDueOnDays(ctx context.Context, days ...int) ([]core.OwnedSubscription, error)
	}

	// OwnerDirectory resolves an owner's reminder email.
	OwnerDirectory interface {
		OwnerEmail(ctx context.Context, ownerID string) (string, error)
	}

	// RunLedger records which days have been dispatched.
	RunLedger interface {
		ClaimReminderRun(ctx context.Context, date core.Date) (bool, error)
		FinishReminderRun(ctx context.Context, date core.Date, owners, reminders int) error
		ReleaseReminderRun(ctx context.Context, date core.Date) error
	}

	// DigestSink accepts a finished digest for delivery.
	DigestSink interface {
		SendDigest(ctx context.Context, d notify.Digest) error
	}
)

// DispatchResult summarises one dispatch.
type DispatchResult struct {
	Date      core.Date
	Owners    int
	Reminders int
	Skipped   int
	Failed    int
	// Ran is false when RunDue decided nothing should be sent.
	Ran bool
}

// ReminderDispatcher sends each owner a digest of what is due today and
// tomorrow. Selection goes through core.SelectReminders so the digest always
// matches the in-app reminder view.
type ReminderDispatcher struct {
	due    DueLister
	owners OwnerDirectory
	ledger RunLedger
	sink   DigestSink
	symbol string
	hour   int
	loc    *time.Location
}

type DispatcherConfig struct {
	CurrencySymbol string
	// Hour of the local day from which RunDue dispatches.
	Hour     int
	Location *time.Location
}

func NewReminderDispatcher(due DueLister, owners OwnerDirectory, ledger RunLedger, sink DigestSink, cfg DispatcherConfig) *ReminderDispatcher {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &ReminderDispatcher{
		due:    due,
		owners: owners,
		ledger: ledger,
		sink:   sink,
		symbol: cfg.CurrencySymbol,
		hour:   cfg.Hour,
		loc:    loc,
	}
}

// RunDue dispatches at most once per local day, and only once the configured
// hour is reached. A run that fails outright is released so the next tick
// retries it.
func (d *ReminderDispatcher) RunDue(ctx context.Context, now time.Time) (DispatchResult, error) {
	local := now.In(d.loc)
	date := core.DateOf(local)
	if local.Hour() < d.hour {
		return DispatchResult{Date: date}, nil
	}

	claimed, err := d.ledger.ClaimReminderRun(ctx, date)
	if err != nil {
		return DispatchResult{Date: date}, fmt.Errorf("claim reminder run: %w", err)
	}
	if !claimed {
		slog.DebugContext(ctx, "Reminder run already claimed", dispatchFields(date).ToSlice()...)
		return DispatchResult{Date: date}, nil
	}

	res, err := d.Dispatch(ctx, now)
	if err != nil {
		if relErr := d.ledger.ReleaseReminderRun(ctx, date); relErr != nil {
			slog.ErrorContext(ctx, "Failed to release reminder run", dispatchFields(date).WithError(relErr).ToSlice()...)
		}
		return res, err
	}

	if err := d.ledger.FinishReminderRun(ctx, date, res.Owners, res.Reminders); err != nil {
		slog.ErrorContext(ctx, "Failed to record reminder run", dispatchFields(date).WithError(err).ToSlice()...)
	}
	return res, nil
}

// Dispatch selects reminders for the local date of now and hands one digest
// per owner to the sink. Owners without an email are skipped; a sink error
// for one owner does not stop the others.
func (d *ReminderDispatcher) Dispatch(ctx context.Context, now time.Time) (DispatchResult, error) {
	date := core.DateOf(now.In(d.loc))
	res := DispatchResult{Date: date, Ran: true}

	today, tomorrow := core.ReminderDays(date.Day())
	due, err := d.due.ListDueOnDays(ctx, today, tomorrow)
	if err != nil {
		return res, fmt.Errorf("load due subscriptions: %w", err)
	}

	order, byOwner := groupByOwner(due, date)
	slog.InfoContext(ctx, "Dispatching reminders", dispatchFields(date).
		With("candidates", len(due)).
		With("owners", len(order)).ToSlice()...)

	var errs []error
	for _, ownerID := range order {
		r := core.SelectReminders(byOwner[ownerID], date.Day())
		if r.Empty() {
			continue
		}

		email, err := d.owners.OwnerEmail(ctx, ownerID)
		if err != nil {
			res.Failed++
			errs = append(errs, fmt.Errorf("owner %s: %w", ownerID, err))
			continue
		}
		if email == "" {
			res.Skipped++
			slog.DebugContext(ctx, "Owner has no reminder email", dispatchFields(date).WithOwner(ownerID).ToSlice()...)
			continue
		}

		digest := notify.BuildDigest(ownerID, email, date, r, d.symbol)
		if err := d.sink.SendDigest(ctx, digest); err != nil {
			res.Failed++
			errs = append(errs, fmt.Errorf("owner %s: %w", ownerID, err))
			slog.ErrorContext(ctx, "Failed to send reminder digest", dispatchFields(date).WithOwner(ownerID).WithError(err).ToSlice()...)
			continue
		}
		res.Owners++
		res.Reminders += digest.Count()
	}

	slog.InfoContext(ctx, "Reminder dispatch complete", dispatchFields(date).
		With("owners", res.Owners).
		With("reminders", res.Reminders).
		With("skipped", res.Skipped).
		With("failed", res.Failed).ToSlice()...)

	// Partial failures are logged; only a run where nothing got through fails.
	if len(errs) > 0 && res.Owners == 0 {
		return res, errors.Join(errs...)
	}
	return res, nil
}

// groupByOwner keeps currently-active records and groups them by owner in
// first-seen order.
func groupByOwner(due []core.OwnedSubscription, today core.Date) ([]string, map[string][]core.Subscription) {
	var order []string
	byOwner := map[string][]core.Subscription{}
	for _, o := range due {
		if !core.IsCurrentlyActiveAsOf(o.Subscription, today) {
			continue
		}
		if _, ok := byOwner[o.OwnerID]; !ok {
			order = append(order, o.OwnerID)
		}
		byOwner[o.OwnerID] = append(byOwner[o.OwnerID], o.Subscription)
	}
	return order, byOwner
}
