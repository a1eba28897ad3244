package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	Monthly Cycle = "monthly"
	Yearly  Cycle = "yearly"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// Default payment source used when none is given on creation.
const DefaultPaymentSource = "Credit Card"

// PaymentOptions lists the payment sources offered by the add form. Any other
// non-empty value is accepted as a custom source.
var PaymentOptions = []string{"Credit Card", "UPI", "Net Banking", "PayPal", "Google Pay", "Apple Pay"}

type (
	// Cycle is the billing period of a subscription.
	Cycle string

	// Date is a calendar date normalized to midnight UTC. The zero value means
	// "absent" for optional bounds.
	Date struct {
		time.Time
	}

	// Subscription is an immutable record of a recurring payment.
	Subscription struct {
		ID            string          `json:"id"`
		Name          string          `json:"name"`
		Amount        decimal.Decimal `json:"amount"`
		Currency      string          `json:"currency"`
		Cycle         Cycle           `json:"cycle"`
		DueDay        int             `json:"dueDay"`
		Color         string          `json:"color"`
		Initial       string          `json:"initial"`
		Autopay       bool            `json:"autopay"`
		PaymentSource string          `json:"paymentSource"`
		StartDate     Date            `json:"startDate"`
		EndDate       Date            `json:"endDate"`
		CreatedAt     time.Time       `json:"createdAt"`
	}

	// OwnedSubscription pairs a subscription with the owner it belongs to.
	// Only the reminder dispatcher sees records across owners.
	OwnedSubscription struct {
		OwnerID string
		Subscription
	}
)

var (
	ErrEmptyName      = errors.New("empty name")
	ErrNameTooLong    = errors.New("name too long (max 100 characters)")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidCycle   = errors.New("invalid billing cycle")
	ErrInvalidDueDay  = errors.New("due day must be between 1 and 31")
	ErrInvalidDate    = errors.New("invalid date")
	ErrEndBeforeStart = errors.New("end date must not be before start date")
	ErrNotFound       = errors.New("subscription not found")
)

// cycleRules maps each supported cycle to how many charges it makes per year.
var cycleRules = map[Cycle]int64{
	Monthly: 12,
	Yearly:  1,
}

// Valid reports whether c is a supported billing cycle.
func (c Cycle) Valid() bool {
	_, ok := cycleRules[c]
	return ok
}

// ChargesPerYear returns the number of charges c makes in a year, 0 if unknown.
func (c Cycle) ChargesPerYear() int64 {
	return cycleRules[c]
}

// ParseCycle parses a cycle name case-insensitively.
func ParseCycle(s string) (Cycle, error) {
	c := Cycle(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCycle, s)
	}
	return c, nil
}

// NewDate creates a Date from year, month, day. Out-of-range days are
// normalized the way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date, read in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Today returns the current local calendar date.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses YYYY-MM-DD. An empty string yields the zero (absent) Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// IsEmpty reports whether the date is absent.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

// After reports whether d is strictly after o.
func (d Date) After(o Date) bool {
	return d.Time.After(o.Time)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD", or null when absent.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

// UnmarshalJSON accepts "YYYY-MM-DD", "" or null.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate checks the record invariants. The engine never calls it; it guards
// data entry.
func (s Subscription) Validate() error {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > 100 {
		return ErrNameTooLong
	}
	if s.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !s.Cycle.Valid() {
		return ErrInvalidCycle
	}
	if s.DueDay < 1 || s.DueDay > 31 {
		return ErrInvalidDueDay
	}
	if !s.StartDate.IsEmpty() && !s.EndDate.IsEmpty() && s.EndDate.Before(s.StartDate) {
		return ErrEndBeforeStart
	}
	return nil
}

// WithDefaults fills creation defaults: start date today, brand color and
// initial from the lookup table, the default payment source and currency.
func (s Subscription) WithDefaults(today Date, currency string) Subscription {
	s.Name = strings.TrimSpace(s.Name)
	if s.StartDate.IsEmpty() {
		s.StartDate = today
	}
	brand := LookupBrand(s.Name)
	if s.Color == "" {
		s.Color = brand.Color
	}
	if s.Initial == "" {
		s.Initial = brand.Initial
	}
	if strings.TrimSpace(s.PaymentSource) == "" {
		s.PaymentSource = DefaultPaymentSource
	}
	if s.Currency == "" {
		s.Currency = currency
	}
	return s
}

// YearlyCost is the amount this subscription charges over a full year.
func (s Subscription) YearlyCost() decimal.Decimal {
	return s.Amount.Mul(decimal.NewFromInt(s.Cycle.ChargesPerYear()))
}
