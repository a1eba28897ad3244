// Package worker holds the long-running loops behind the worker commands.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"subcal/internal/core"
	"subcal/internal/notify"
)

// MailerWorker delivers digests consumed from the queue.
type MailerWorker struct {
	mailer notify.Mailer
	// Digests older than maxAge days are dropped instead of sent late.
	maxAge int
	now    func() time.Time
}

func NewMailerWorker(mailer notify.Mailer) *MailerWorker {
	return &MailerWorker{mailer: mailer, maxAge: 1, now: time.Now}
}

// HandleDigest sends d. Returning an error asks the broker to redeliver, so
// permanent problems (no recipient, stale digest) are logged and dropped.
func (w *MailerWorker) HandleDigest(ctx context.Context, d notify.Digest) error {
	if !d.Date.IsEmpty() {
		cutoff := core.DateOf(w.now()).AddDate(0, 0, -w.maxAge)
		if d.Date.Before(core.DateOf(cutoff)) {
			slog.WarnContext(ctx, "Dropping stale reminder digest",
				"owner_id", d.OwnerID,
				"date", d.Date.String())
			return nil
		}
	}

	err := notify.Deliver(ctx, w.mailer, d)
	if errors.Is(err, notify.ErrNoRecipient) {
		slog.WarnContext(ctx, "Dropping reminder digest without recipient", "owner_id", d.OwnerID)
		return nil
	}
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Reminder digest mailed",
		"owner_id", d.OwnerID,
		"items", d.Count())
	return nil
}
