package worker

import (
	"context"
	"log/slog"
	"time"

	"subcal/internal/services"
)

// Dispatcher is the part of services.ReminderDispatcher the loop drives.
type Dispatcher interface {
	RunDue(ctx context.Context, now time.Time) (services.DispatchResult, error)
}

// ReminderWorker ticks the dispatcher on a fixed interval. The dispatcher
// itself decides whether a tick sends anything.
type ReminderWorker struct {
	dispatcher Dispatcher
	interval   time.Duration
	now        func() time.Time
}

func NewReminderWorker(d Dispatcher, interval time.Duration) *ReminderWorker {
	return &ReminderWorker{dispatcher: d, interval: interval, now: time.Now}
}

// Run ticks once immediately and then every interval until ctx is done.
func (w *ReminderWorker) Run(ctx context.Context) error {
	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Reminder worker stopping", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *ReminderWorker) tick(ctx context.Context) {
	res, err := w.dispatcher.RunDue(ctx, w.now())
	if err != nil {
		slog.ErrorContext(ctx, "Reminder dispatch failed", "date", res.Date.String(), "error", err)
		return
	}
	if res.Ran {
		slog.InfoContext(ctx, "Reminder dispatch finished",
			"date", res.Date.String(),
			"owners", res.Owners,
			"reminders", res.Reminders)
	}
}
