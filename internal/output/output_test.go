package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subcal/internal/core"
)

func sample() []core.Subscription {
	return []core.Subscription{
		{ID: "0123456789abcdef", Name: "Netflix", Amount: decimal.NewFromInt(1299), Cycle: core.Monthly, DueDay: 5,
			StartDate: core.NewDate(2025, time.January, 1), CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "b", Name: "Figma", Amount: decimal.NewFromInt(1200), Cycle: core.Yearly, DueDay: 5,
			StartDate: core.NewDate(2024, time.January, 1), EndDate: core.NewDate(2025, time.February, 1)},
		{ID: "c", Name: "Spotify", Amount: decimal.NewFromInt(119), Cycle: core.Monthly, DueDay: 5},
	}
}

func TestSubscriptionsTable(t *testing.T) {
	var buf bytes.Buffer
	p := Printer{W: &buf, Symbol: "₹"}
	today := core.NewDate(2025, time.March, 1)
	require.NoError(t, p.Subscriptions(sample(), today, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))

	out := buf.String()
	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "0123456789")
	assert.Contains(t, out, "₹1,299")
	assert.Contains(t, out, "CANCELED")
	assert.Contains(t, out, "1mo")
	assert.NotContains(t, out, "\x1b[", "no color codes unless enabled")
}

func TestSubscriptionsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Printer{W: &buf}.Subscriptions(nil, core.Today(), time.Now()))
	assert.Contains(t, buf.String(), "No subscriptions yet")
}

func TestMonthGrid(t *testing.T) {
	var buf bytes.Buffer
	subs := sample()
	for i := range subs {
		subs[i].StartDate, subs[i].EndDate = core.Date{}, core.Date{}
	}
	cal := core.BuildMonth(subs, 2024, time.March, core.NewDate(2024, time.March, 5))
	require.NoError(t, Printer{W: &buf, Symbol: "₹"}.Month(cal))

	out := buf.String()
	assert.Contains(t, out, "[5*]")
	assert.Contains(t, out, "+1 more")
	assert.Contains(t, out, "₹1,418")
}

func TestYearAndStats(t *testing.T) {
	var buf bytes.Buffer
	p := Printer{W: &buf, Symbol: "₹"}
	today := core.NewDate(2025, time.March, 1)
	require.NoError(t, p.Year(core.BuildYear(sample(), 2025, today)))
	assert.Contains(t, buf.String(), "December")
	assert.Contains(t, buf.String(), "₹17,016")

	buf.Reset()
	require.NoError(t, p.Stats(core.ComputeStats(sample(), today)))
	assert.Contains(t, buf.String(), "₹1,418")
	assert.Contains(t, buf.String(), "Active subscriptions")
}

func TestReminders(t *testing.T) {
	var buf bytes.Buffer
	p := Printer{W: &buf, Symbol: "₹"}
	require.NoError(t, p.Reminders(core.SelectReminders(sample()[:1], 4)))
	assert.Equal(t, "Netflix — ₹1,299 is due tomorrow\n", buf.String())

	buf.Reset()
	require.NoError(t, p.Reminders(core.SelectReminders(sample(), 20)))
	assert.Contains(t, buf.String(), "Nothing due on the 20th")
}

func TestJSONMode(t *testing.T) {
	var buf bytes.Buffer
	p := Printer{W: &buf, JSON: true}
	require.NoError(t, p.Brand("Netflix", core.LookupBrand("Netflix"), true))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "#E50914", got["color"])
	assert.Equal(t, true, got["known"])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "YouTube P…", truncate("YouTube Premium", 10))
}
