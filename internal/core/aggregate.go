package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stats is the global spend summary computed on the currently-active set.
type Stats struct {
	MonthlySpend     decimal.Decimal `json:"monthlySpend"`
	YearlyProjection decimal.Decimal `json:"yearlyProjection"`
	ActiveCount      int             `json:"activeCount"`
}

// MonthlyTotal sums the amounts of monthly-cycle subscriptions.
func MonthlyTotal(subs []Subscription) decimal.Decimal {
	return sumCycle(subs, Monthly)
}

// YearlyDirect sums the amounts of yearly-cycle subscriptions.
func YearlyDirect(subs []Subscription) decimal.Decimal {
	return sumCycle(subs, Yearly)
}

func sumCycle(subs []Subscription, c Cycle) decimal.Decimal {
	total := decimal.Zero
	for _, s := range subs {
		if s.Cycle == c {
			total = total.Add(s.Amount)
		}
	}
	return total
}

// MonthTotal is the calendar grid total: monthly-cycle amounts over the
// subscriptions active at any point during the month.
func MonthTotal(subs []Subscription, year int, month time.Month) decimal.Decimal {
	return MonthlyTotal(ActiveForMonth(subs, year, month))
}

// ProjectYear returns monthly*12 + yearly over exactly the given set.
func ProjectYear(subs []Subscription) decimal.Decimal {
	return MonthlyTotal(subs).Mul(decimal.NewFromInt(12)).Add(YearlyDirect(subs))
}

// YearlyProjection projects annual spend over the currently-active set.
func YearlyProjection(subs []Subscription, today Date) decimal.Decimal {
	return ProjectYear(CurrentlyActive(subs, today))
}

// ComputeStats builds the global stats view as of today.
func ComputeStats(subs []Subscription, today Date) Stats {
	active := CurrentlyActive(subs, today)
	return Stats{
		MonthlySpend:     MonthlyTotal(active),
		YearlyProjection: ProjectYear(active),
		ActiveCount:      len(active),
	}
}
