// Package notify turns reminder selections into per-owner digests and
// delivers them by mail.
package notify

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"subcal/internal/core"
)

const (
	WhenToday    = "today"
	WhenTomorrow = "tomorrow"
)

type (
	// DigestItem is one subscription inside a digest.
	DigestItem struct {
		SubscriptionID string          `json:"subscription_id"`
		Name           string          `json:"name"`
		Amount         decimal.Decimal `json:"amount"`
		DueDay         int             `json:"due_day"`
		When           string          `json:"when"`
	}

	// Digest is the reminder message for one owner on one day.
	Digest struct {
		OwnerID string       `json:"owner_id"`
		Email   string       `json:"email"`
		Date    core.Date    `json:"date"`
		Symbol  string       `json:"symbol"`
		Items   []DigestItem `json:"items"`
	}
)

// BuildDigest flattens r into a digest, due-today items first.
func BuildDigest(ownerID, email string, date core.Date, r core.Reminders, symbol string) Digest {
	d := Digest{
		OwnerID: ownerID,
		Email:   email,
		Date:    date,
		Symbol:  symbol,
		Items:   make([]DigestItem, 0, r.Count()),
	}
	add := func(subs []core.Subscription, when string) {
		for _, s := range subs {
			d.Items = append(d.Items, DigestItem{
				SubscriptionID: s.ID,
				Name:           s.Name,
				Amount:         s.Amount,
				DueDay:         s.DueDay,
				When:           when,
			})
		}
	}
	add(r.DueToday, WhenToday)
	add(r.DueTomorrow, WhenTomorrow)
	return d
}

func (d Digest) Count() int { return len(d.Items) }

// Subject renders e.g. "subcal: 2 subscriptions due".
func (d Digest) Subject() string {
	noun := "subscriptions"
	if d.Count() == 1 {
		noun = "subscription"
	}
	return fmt.Sprintf("subcal: %d %s due", d.Count(), noun)
}

// Body renders the greeting, one bullet line per item and the sign-off.
func (d Digest) Body() string {
	lines := make([]string, 0, len(d.Items))
	for _, it := range d.Items {
		lines = append(lines, "• "+core.ReminderLine(it.Name, it.Amount, d.Symbol, it.When))
	}
	return "Hey!\n\nHere are your upcoming subscription renewals:\n\n" +
		strings.Join(lines, "\n") +
		"\n\n— subcal"
}
