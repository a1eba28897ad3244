package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Reminders is the due-today / due-tomorrow split for one day of the month.
type Reminders struct {
	Day         int            `json:"day"`
	DueToday    []Subscription `json:"dueToday"`
	DueTomorrow []Subscription `json:"dueTomorrow"`
}

// Empty reports whether nothing is due today or tomorrow.
func (r Reminders) Empty() bool {
	return len(r.DueToday) == 0 && len(r.DueTomorrow) == 0
}

// Count returns the number of reminders in both groups.
func (r Reminders) Count() int {
	return len(r.DueToday) + len(r.DueTomorrow)
}

// ReminderDays returns the two day-of-month values a reminder run matches.
// There is no month rollover: on the 31st tomorrow is 32 and matches nothing.
func ReminderDays(today int) (int, int) {
	return today, today + 1
}

// SelectReminders partitions subs by due day relative to today's
// day-of-month. Callers pass the currently-active set. Both the in-app
// surface and the scheduled dispatcher use this function.
func SelectReminders(subs []Subscription, today int) Reminders {
	dueToday, dueTomorrow := ReminderDays(today)
	r := Reminders{Day: today}
	for _, s := range subs {
		switch s.DueDay {
		case dueToday:
			r.DueToday = append(r.DueToday, s)
		case dueTomorrow:
			r.DueTomorrow = append(r.DueTomorrow, s)
		}
	}
	return r
}

type (
	// Notification is one line of the in-app notification list.
	Notification struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Message string `json:"message"`
		Time    string `json:"time"`
	}

	// Notifications splits the current month into upcoming and paid charges.
	Notifications struct {
		Upcoming []Notification `json:"upcoming"`
		Paid     []Notification `json:"paid"`
	}
)

// BuildNotifications classifies subs by due day against today's day-of-month:
// due day after today is upcoming, on or before today is paid. It is a view
// over the same field as SelectReminders, not a second source of truth.
func BuildNotifications(subs []Subscription, today int, symbol string) Notifications {
	n := Notifications{Upcoming: []Notification{}, Paid: []Notification{}}
	for _, s := range subs {
		if s.DueDay > today {
			left := s.DueDay - today
			n.Upcoming = append(n.Upcoming, Notification{
				ID:      s.ID,
				Title:   s.Name,
				Message: fmt.Sprintf("Renews in %d %s", left, plural(left, "day", "days")),
				Time:    fmt.Sprintf("%dd", left),
			})
			continue
		}
		label := "Today"
		if s.DueDay != today {
			label = fmt.Sprintf("%dd ago", today-s.DueDay)
		}
		n.Paid = append(n.Paid, Notification{
			ID:      s.ID,
			Title:   s.Name,
			Message: fmt.Sprintf("Paid on %s — %s", Ordinal(s.DueDay), FormatAmount(s.Amount, symbol)),
			Time:    label,
		})
	}
	return n
}

// ReminderLine renders one reminder for messages, e.g.
// "Netflix — ₹199 is due today".
func ReminderLine(name string, amount decimal.Decimal, symbol, when string) string {
	return fmt.Sprintf("%s — %s is due %s", name, FormatAmount(amount, symbol), when)
}

// Ordinal renders a day number with its English suffix (1st, 2nd, 11th, 23rd).
func Ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
