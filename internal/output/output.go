// Package output renders subcal views for the terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"subcal/internal/core"
)

// Printer writes tables or JSON to an output stream.
type Printer struct {
	W      io.Writer
	Symbol string
	JSON   bool
	// Color enables ANSI styling in tables.
	Color bool
}

func (p Printer) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.W)
	t.SetStyle(table.StyleLight)
	if !p.Color {
		t.Style().Color = table.ColorOptions{}
	}
	return t
}

func (p Printer) paint(c text.Color, s string) string {
	if !p.Color {
		return s
	}
	return c.Sprint(s)
}

// PrintJSON writes v as indented JSON.
func (p Printer) PrintJSON(v any) error {
	enc := json.NewEncoder(p.W)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Subscriptions prints the subscription list with the canceled flag and
// tenure.
func (p Printer) Subscriptions(subs []core.Subscription, today core.Date, now time.Time) error {
	if p.JSON {
		return p.PrintJSON(map[string]any{"subscriptions": subs})
	}
	if len(subs) == 0 {
		_, err := fmt.Fprintln(p.W, "No subscriptions yet. Add one with 'subcalctl add'.")
		return err
	}

	t := p.newTable()
	t.AppendHeader(table.Row{"ID", "Name", "Amount", "Cycle", "Due", "Status", "Started", "Ends", "Tenure"})
	for _, s := range subs {
		status := p.paint(text.FgGreen, "ACTIVE")
		if core.IsCanceledAsOf(s, today) {
			status = p.paint(text.FgRed, "CANCELED")
		}
		t.AppendRow(table.Row{
			shortID(s.ID),
			s.Name,
			core.FormatAmount(s.Amount, p.Symbol),
			string(s.Cycle),
			core.Ordinal(s.DueDay),
			status,
			s.StartDate.String(),
			dashIfEmpty(s.EndDate.String()),
			core.Tenure(s.CreatedAt, now),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Name: "Amount", Align: text.AlignRight}})
	t.Render()
	return nil
}

// Stats prints the global spend summary.
func (p Printer) Stats(st core.Stats) error {
	if p.JSON {
		return p.PrintJSON(st)
	}
	t := p.newTable()
	t.AppendRows([]table.Row{
		{"Monthly spend", core.FormatAmount(st.MonthlySpend, p.Symbol)},
		{"Yearly projection", core.FormatAmount(st.YearlyProjection, p.Symbol)},
		{"Active subscriptions", st.ActiveCount},
	})
	t.Render()
	return nil
}

// Month prints a Monday-first grid. Each cell shows the day, a marker for
// yearly charges and the visible subscription count.
func (p Printer) Month(cal core.MonthCalendar) error {
	if p.JSON {
		return p.PrintJSON(cal)
	}
	t := p.newTable()
	t.SetTitle(fmt.Sprintf("%s %d", cal.Month, cal.Year))
	t.AppendHeader(table.Row{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"})
	for _, week := range cal.Weeks {
		row := make(table.Row, 0, 7)
		for _, c := range week {
			row = append(row, p.cell(c))
		}
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{"Total", core.FormatAmount(cal.Total, p.Symbol), "", "", "", "Active", cal.ActiveCount})
	t.Render()
	return nil
}

func (p Printer) cell(c core.Cell) string {
	if c.Day == 0 {
		return ""
	}
	label := strconv.Itoa(c.Day)
	if c.HasYearly {
		label += "*"
	}
	if c.IsToday {
		label = p.paint(text.FgHiCyan, "["+label+"]")
	}
	if c.Count == 0 {
		return label
	}
	lines := []string{label}
	for _, s := range c.Shown {
		lines = append(lines, truncate(s.Name, 10))
	}
	if c.Overflow > 0 {
		lines = append(lines, fmt.Sprintf("+%d more", c.Overflow))
	}
	return strings.Join(lines, "\n")
}

// Year prints one summary row per month and the annual projection.
func (p Printer) Year(yc core.YearCalendar) error {
	if p.JSON {
		return p.PrintJSON(yc)
	}
	t := p.newTable()
	t.SetTitle(strconv.Itoa(yc.Year))
	t.AppendHeader(table.Row{"Month", "Charges", "Active", "Total"})
	for _, m := range yc.Months {
		charges := 0
		for _, week := range m.Weeks {
			for _, c := range week {
				charges += c.Count
			}
		}
		t.AppendRow(table.Row{m.Month.String(), charges, m.ActiveCount, core.FormatAmount(m.Total, p.Symbol)})
	}
	t.AppendFooter(table.Row{"Projection", "", "", core.FormatAmount(yc.YearlyProjection, p.Symbol)})
	t.SetColumnConfigs([]table.ColumnConfig{{Name: "Total", Align: text.AlignRight}})
	t.Render()
	return nil
}

// Reminders prints the due-today and due-tomorrow lines.
func (p Printer) Reminders(r core.Reminders) error {
	if p.JSON {
		return p.PrintJSON(r)
	}
	if r.Empty() {
		_, err := fmt.Fprintf(p.W, "Nothing due on the %s or the day after.\n", core.Ordinal(r.Day))
		return err
	}
	for _, s := range r.DueToday {
		if _, err := fmt.Fprintln(p.W, core.ReminderLine(s.Name, s.Amount, p.Symbol, "today")); err != nil {
			return err
		}
	}
	for _, s := range r.DueTomorrow {
		if _, err := fmt.Fprintln(p.W, core.ReminderLine(s.Name, s.Amount, p.Symbol, "tomorrow")); err != nil {
			return err
		}
	}
	return nil
}

// Brand prints the lookup result for one name.
func (p Printer) Brand(name string, b core.Brand, known bool) error {
	if p.JSON {
		return p.PrintJSON(map[string]any{"name": name, "known": known, "color": b.Color, "initial": b.Initial})
	}
	t := p.newTable()
	t.AppendRows([]table.Row{
		{"Name", name},
		{"Known", known},
		{"Color", b.Color},
		{"Initial", b.Initial},
	})
	t.Render()
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
