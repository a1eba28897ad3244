package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxShownPerCell is how many subscriptions a calendar cell lists before
// collapsing the rest into an overflow count.
const MaxShownPerCell = 2

type (
	// Cell is one day of a month grid. Padding cells have Day == 0.
	Cell struct {
		Day       int            `json:"day"`
		IsToday   bool           `json:"isToday"`
		Shown     []Subscription `json:"shown,omitempty"`
		Overflow  int            `json:"overflow"`
		Count     int            `json:"count"`
		HasYearly bool           `json:"hasYearly"`
	}

	// MonthCalendar is a Monday-first month grid with its totals.
	MonthCalendar struct {
		Year        int             `json:"year"`
		Month       time.Month      `json:"month"`
		Weeks       [][]Cell        `json:"weeks"`
		Total       decimal.Decimal `json:"total"`
		ActiveCount int             `json:"activeCount"`
	}

	// YearCalendar holds twelve month grids and the annual estimate.
	YearCalendar struct {
		Year             int             `json:"year"`
		Months           []MonthCalendar `json:"months"`
		YearlyProjection decimal.Decimal `json:"yearlyProjection"`
	}
)

// BuildMonth lays out the month grid. Each cell carries the subscriptions
// visible that day; the total and count use the month-overlap set.
func BuildMonth(subs []Subscription, year int, month time.Month, today Date) MonthCalendar {
	days := DaysIn(year, month)
	lead := mondayOffset(NewDate(year, month, 1).Weekday())

	cells := make([]Cell, 0, 42)
	for i := 0; i < lead; i++ {
		cells = append(cells, Cell{})
	}
	for d := 1; d <= days; d++ {
		cells = append(cells, buildCell(subs, year, month, d, today))
	}
	for len(cells)%7 != 0 {
		cells = append(cells, Cell{})
	}

	weeks := make([][]Cell, 0, len(cells)/7)
	for i := 0; i < len(cells); i += 7 {
		weeks = append(weeks, cells[i:i+7])
	}

	active := ActiveForMonth(subs, year, month)
	return MonthCalendar{
		Year:        year,
		Month:       month,
		Weeks:       weeks,
		Total:       MonthlyTotal(active),
		ActiveCount: len(active),
	}
}

// BuildYear lays out all twelve months. The projection is today-relative.
func BuildYear(subs []Subscription, year int, today Date) YearCalendar {
	months := make([]MonthCalendar, 0, 12)
	for m := time.January; m <= time.December; m++ {
		months = append(months, BuildMonth(subs, year, m, today))
	}
	return YearCalendar{
		Year:             year,
		Months:           months,
		YearlyProjection: YearlyProjection(subs, today),
	}
}

func buildCell(subs []Subscription, year int, month time.Month, day int, today Date) Cell {
	visible := VisibleOnDay(subs, year, month, day)
	cell := Cell{
		Day:     day,
		IsToday: today.Year() == year && today.Month() == month && today.Day() == day,
		Count:   len(visible),
	}
	for _, s := range visible {
		if s.Cycle == Yearly {
			cell.HasYearly = true
			break
		}
	}
	if len(visible) > MaxShownPerCell {
		cell.Shown = visible[:MaxShownPerCell]
		cell.Overflow = len(visible) - MaxShownPerCell
	} else {
		cell.Shown = visible
	}
	return cell
}

// mondayOffset converts a weekday to its column in a Monday-first week.
func mondayOffset(w time.Weekday) int {
	return (int(w) + 6) % 7
}
