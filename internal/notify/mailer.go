package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNoRecipient is returned when a digest has no email address.
var ErrNoRecipient = errors.New("digest has no recipient")

// Mailer delivers a plain-text message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) Send(ctx context.Context, to, subject, body string) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "Mail not sent (log backend)",
		"to", to,
		"subject", subject,
		"body", body)
	return nil
}

// MailerSink delivers digests straight through a Mailer.
type MailerSink struct {
	Mailer Mailer
}

func (s MailerSink) SendDigest(ctx context.Context, d Digest) error {
	return Deliver(ctx, s.Mailer, d)
}

// Deliver sends d through m. Empty digests are dropped silently.
func Deliver(ctx context.Context, m Mailer, d Digest) error {
	if d.Count() == 0 {
		return nil
	}
	if d.Email == "" {
		return ErrNoRecipient
	}
	if err := m.Send(ctx, d.Email, d.Subject(), d.Body()); err != nil {
		return fmt.Errorf("send digest to owner %s: %w", d.OwnerID, err)
	}
	return nil
}
