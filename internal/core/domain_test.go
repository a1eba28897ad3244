package core

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSub() Subscription {
	return Subscription{
		Name:   "Netflix",
		Amount: decimal.NewFromInt(199),
		Cycle:  Monthly,
		DueDay: 5,
	}
}

func TestSubscriptionValidate(t *testing.T) {
	require.NoError(t, validSub().Validate())

	cases := []struct {
		name   string
		mutate func(*Subscription)
		want   error
	}{
		{"empty name", func(s *Subscription) { s.Name = "  " }, ErrEmptyName},
		{"long name", func(s *Subscription) { s.Name = strings.Repeat("a", 101) }, ErrNameTooLong},
		{"long multibyte name", func(s *Subscription) { s.Name = strings.Repeat("न", 101) }, ErrNameTooLong},
		{"negative amount", func(s *Subscription) { s.Amount = decimal.NewFromInt(-1) }, ErrInvalidAmount},
		{"bad cycle", func(s *Subscription) { s.Cycle = "weekly" }, ErrInvalidCycle},
		{"due day zero", func(s *Subscription) { s.DueDay = 0 }, ErrInvalidDueDay},
		{"due day 32", func(s *Subscription) { s.DueDay = 32 }, ErrInvalidDueDay},
		{"end before start", func(s *Subscription) {
			s.StartDate = NewDate(2024, time.March, 1)
			s.EndDate = NewDate(2024, time.February, 1)
		}, ErrEndBeforeStart},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := validSub()
			tc.mutate(&s)
			assert.ErrorIs(t, s.Validate(), tc.want)
		})
	}
}

func TestSubscriptionValidate_MultibyteNameCountsCharacters(t *testing.T) {
	s := validSub()
	s.Name = strings.Repeat("न", 100)
	assert.NoError(t, s.Validate())
}

func TestSubscriptionValidate_ZeroAmountAndSameDayWindow(t *testing.T) {
	s := validSub()
	s.Amount = decimal.Zero
	s.StartDate = NewDate(2024, time.May, 1)
	s.EndDate = NewDate(2024, time.May, 1)
	assert.NoError(t, s.Validate())
}

func TestWithDefaults(t *testing.T) {
	today := NewDate(2025, time.October, 14)

	s := Subscription{Name: " spotify ", Amount: decimal.NewFromInt(119), Cycle: Monthly, DueDay: 3}.WithDefaults(today, "INR")
	assert.Equal(t, "spotify", s.Name)
	assert.Equal(t, today, s.StartDate)
	assert.True(t, s.EndDate.IsEmpty())
	assert.Equal(t, "#1DB954", s.Color)
	assert.Equal(t, "S", s.Initial)
	assert.Equal(t, DefaultPaymentSource, s.PaymentSource)
	assert.Equal(t, "INR", s.Currency)

	custom := Subscription{Name: "gym", Color: "#000000", Initial: "G", PaymentSource: "UPI", StartDate: NewDate(2020, time.January, 1)}.WithDefaults(today, "INR")
	assert.Equal(t, "#000000", custom.Color)
	assert.Equal(t, "G", custom.Initial)
	assert.Equal(t, "UPI", custom.PaymentSource)
	assert.Equal(t, NewDate(2020, time.January, 1), custom.StartDate)
}

func TestParseCycle(t *testing.T) {
	c, err := ParseCycle(" Yearly ")
	require.NoError(t, err)
	assert.Equal(t, Yearly, c)

	_, err = ParseCycle("weekly")
	assert.ErrorIs(t, err, ErrInvalidCycle)
}

func TestYearlyCost(t *testing.T) {
	m := Subscription{Amount: decimal.NewFromInt(100), Cycle: Monthly}
	y := Subscription{Amount: decimal.NewFromInt(1200), Cycle: Yearly}
	assert.True(t, m.YearlyCost().Equal(decimal.NewFromInt(1200)))
	assert.True(t, y.YearlyCost().Equal(decimal.NewFromInt(1200)))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-06-20")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.June, 20), d)

	empty, err := ParseDate("")
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	_, err = ParseDate("20/06/2024")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestDateOfDropsTimeOfDay(t *testing.T) {
	late := time.Date(2024, time.June, 20, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, NewDate(2024, time.June, 20), DateOf(late))
}

func TestDateJSON(t *testing.T) {
	type wrapper struct {
		Start Date `json:"start"`
		End   Date `json:"end"`
	}
	b, err := json.Marshal(wrapper{Start: NewDate(2024, time.January, 10)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2024-01-10","end":null}`, string(b))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"start":"2024-01-10","end":""}`), &w))
	assert.Equal(t, NewDate(2024, time.January, 10), w.Start)
	assert.True(t, w.End.IsEmpty())

	assert.Error(t, json.Unmarshal([]byte(`{"start":"soon"}`), &w))
}
