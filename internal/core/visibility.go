package core

import "time"

// IsActiveOnDate reports whether date falls inside the subscription's active
// window [StartDate, EndDate]. Absent bounds are open. Comparison is by
// calendar day; date is normalized before comparing.
func IsActiveOnDate(sub Subscription, date Date) bool {
	d := DateOf(date.Time)
	if !sub.StartDate.IsEmpty() && d.Before(DateOf(sub.StartDate.Time)) {
		return false
	}
	if !sub.EndDate.IsEmpty() && d.After(DateOf(sub.EndDate.Time)) {
		return false
	}
	return true
}

// IsCanceledAsOf reports whether the subscription's end date is strictly
// before today. A subscription ending today is still active.
func IsCanceledAsOf(sub Subscription, today Date) bool {
	if sub.EndDate.IsEmpty() {
		return false
	}
	return DateOf(sub.EndDate.Time).Before(DateOf(today.Time))
}

// IsCanceled evaluates IsCanceledAsOf against the current local date.
func IsCanceled(sub Subscription) bool {
	return IsCanceledAsOf(sub, Today())
}

// IsCurrentlyActiveAsOf is the negation of IsCanceledAsOf.
func IsCurrentlyActiveAsOf(sub Subscription, today Date) bool {
	return !IsCanceledAsOf(sub, today)
}

// IsCurrentlyActive is the negation of IsCanceled.
func IsCurrentlyActive(sub Subscription) bool {
	return !IsCanceled(sub)
}

// IsVisibleOnDay reports whether sub renders on the given calendar cell: its
// due day matches and that date is inside its active window. Calendars only
// ask for days that exist, so a due day of 31 never shows in a 30-day month.
func IsVisibleOnDay(sub Subscription, year int, month time.Month, day int) bool {
	if sub.DueDay != day {
		return false
	}
	return IsActiveOnDate(sub, NewDate(year, month, day))
}

// VisibleOnDay returns the subscriptions rendering on one day, in input order.
func VisibleOnDay(subs []Subscription, year int, month time.Month, day int) []Subscription {
	var out []Subscription
	for _, s := range subs {
		if IsVisibleOnDay(s, year, month, day) {
			out = append(out, s)
		}
	}
	return out
}

// ActiveForMonth returns every subscription whose active window overlaps the
// month at all, in input order. It ignores whether the due day has passed.
func ActiveForMonth(subs []Subscription, year int, month time.Month) []Subscription {
	first := NewDate(year, month, 1)
	last := NewDate(year, month, DaysIn(year, month))

	out := make([]Subscription, 0, len(subs))
	for _, s := range subs {
		if !s.StartDate.IsEmpty() && DateOf(s.StartDate.Time).After(last) {
			continue
		}
		if !s.EndDate.IsEmpty() && DateOf(s.EndDate.Time).Before(first) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// CurrentlyActive returns the subscriptions not canceled as of today, in
// input order. This is the set behind global stats; do not confuse it with
// ActiveForMonth.
func CurrentlyActive(subs []Subscription, today Date) []Subscription {
	out := make([]Subscription, 0, len(subs))
	for _, s := range subs {
		if IsCurrentlyActiveAsOf(s, today) {
			out = append(out, s)
		}
	}
	return out
}

// DaysIn returns the number of days in the month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
