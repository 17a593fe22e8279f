// Package render prints tracker state to a terminal.
package render

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"fintrack/internal/models"
	"fintrack/internal/services/report"
	"fintrack/internal/services/storage"
)

const (
	labelWidth = 12
	moneyWidth = 14
	barWidth   = 20
)

type palette struct {
	positive lipgloss.Color
	negative lipgloss.Color
	muted    lipgloss.Color
	accent   lipgloss.Color
	text     lipgloss.Color
}

var palettes = map[models.Theme]palette{
	models.ThemeLight: {
		positive: lipgloss.Color("#2e7d32"),
		negative: lipgloss.Color("#c62828"),
		muted:    lipgloss.Color("#616161"),
		accent:   lipgloss.Color("#1565c0"),
		text:     lipgloss.Color("#212121"),
	},
	models.ThemeDark: {
		positive: lipgloss.Color("#a6e3a1"),
		negative: lipgloss.Color("#f38ba8"),
		muted:    lipgloss.Color("#7f849c"),
		accent:   lipgloss.Color("#89b4fa"),
		text:     lipgloss.Color("#cdd6f4"),
	},
}

// Renderer writes styled views to an output stream
type Renderer struct {
	out      io.Writer
	currency string

	title    lipgloss.Style
	label    lipgloss.Style
	muted    lipgloss.Style
	positive lipgloss.Style
	negative lipgloss.Style
	cell     lipgloss.Style
}

// New creates a renderer for out using the currency and theme from settings.
// Color is dropped automatically when out is not a terminal.
func New(out io.Writer, settings models.Settings) *Renderer {
	lg := lipgloss.NewRenderer(out)
	p, ok := palettes[settings.Theme]
	if !ok {
		p = palettes[models.ThemeLight]
	}
	currency := settings.Currency
	if currency == "" {
		currency = models.DefaultSettings().Currency
	}

	return &Renderer{
		out:      out,
		currency: currency,
		title:    lg.NewStyle().Bold(true).Foreground(p.accent),
		label:    lg.NewStyle().Foreground(p.text).Width(labelWidth),
		muted:    lg.NewStyle().Foreground(p.muted),
		positive: lg.NewStyle().Foreground(p.positive),
		negative: lg.NewStyle().Foreground(p.negative),
		cell:     lg.NewStyle().Width(moneyWidth).Align(lipgloss.Right),
	}
}

// Money formats v with the currency symbol and thousands separators
func (r *Renderer) Money(v float64) string {
	return FormatMoney(r.currency, v)
}

// FormatMoney formats v with two decimals, thousands separators and the given symbol
func FormatMoney(currency string, v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	fixed := decimal.NewFromFloat(v).StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return sign + currency + fixed
	}
	return sign + currency + humanize.Comma(n) + "." + frac
}

// FormatPercent formats a percentage with two decimals
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// FormatChange formats a signed percentage change
func FormatChange(v float64) string {
	if v > 0 {
		return fmt.Sprintf("+%.1f%%", v)
	}
	return fmt.Sprintf("%.1f%%", v)
}

func (r *Renderer) signed(v float64) lipgloss.Style {
	if v < 0 {
		return r.negative
	}
	return r.positive
}

func (r *Renderer) moneyCell(v float64, style lipgloss.Style) string {
	return style.Inherit(r.cell).Render(r.Money(v))
}

func (r *Renderer) headerCell(s string) string {
	return r.muted.Inherit(r.cell).Render(s)
}

func (r *Renderer) println(parts ...string) {
	fmt.Fprintln(r.out, strings.Join(parts, ""))
}

// Message prints a single line of plain text
func (r *Renderer) Message(format string, args ...any) {
	fmt.Fprintf(r.out, format+"\n", args...)
}

// Week prints the seven days with income, expense and profit columns
func (r *Renderer) Week(week *models.WeekData) {
	r.println(r.title.Render("This week"))
	r.println(r.muted.Width(labelWidth).Render("Day"), r.headerCell("Income"), r.headerCell("Expense"), r.headerCell("Profit"))

	names := models.DayNames()
	for i, name := range names {
		day := models.Day(i)
		profit := week.DailyProfit(day)
		r.println(
			r.label.Render(name),
			r.moneyCell(week.Incomes[i], r.positive),
			r.moneyCell(week.Expenses[i], r.negative),
			r.moneyCell(profit, r.signed(profit)),
		)
	}

	net := week.NetProfit(nil)
	r.println(
		r.label.Bold(true).Render("Total"),
		r.moneyCell(week.TotalIncome(), r.positive.Bold(true)),
		r.moneyCell(week.TotalExpenses(), r.negative.Bold(true)),
		r.moneyCell(net, r.signed(net).Bold(true)),
	)
	if week.WeekStart > 0 {
		r.println(r.muted.Render("Last updated " + formatDateTime(week.LastWritten())))
	}
}

// Extras prints the extra expenses sorted by reason
func (r *Renderer) Extras(extras models.Extras) {
	r.println(r.title.Render("Extra expenses"))
	if len(extras) == 0 {
		r.println(r.muted.Render("No extra expenses recorded"))
		return
	}
	width := labelWidth
	for _, reason := range extras.Reasons() {
		if n := lipgloss.Width(reason) + 2; n > width {
			width = n
		}
	}
	for _, reason := range extras.Reasons() {
		r.println(r.label.Width(width).Render(reason), r.moneyCell(extras[reason], r.negative))
	}
	r.println(r.label.Width(width).Bold(true).Render("Total"), r.moneyCell(extras.Total(), r.negative.Bold(true)))
}

// Summary prints the weekly report, followed by the comparison with the
// previous week when cmp has data
func (r *Renderer) Summary(s *models.WeekSummary, cmp *models.WeekComparison) {
	r.println(r.title.Render("Weekly report"))

	r.println(r.label.Render("Income"), r.moneyCell(s.TotalIncome, r.positive))
	r.println(r.label.Render("Expenses"), r.moneyCell(s.TotalExpenses, r.negative))
	r.println(r.label.Render("Extras"), r.moneyCell(s.TotalExtras, r.negative))
	r.println(r.label.Render("All costs"), r.moneyCell(s.GrandTotalExpenses, r.negative))
	r.println(r.label.Bold(true).Render("Net profit"), r.moneyCell(s.NetProfit, r.signed(s.NetProfit).Bold(true)))
	r.println()

	status := r.positive.Render("Profitable")
	if !s.IsProfitable {
		status = r.negative.Render("Loss")
	}
	r.println(r.label.Render("Status"), " ", status)
	r.println(r.label.Render("Margin"), " ", r.signed(s.ProfitMargin).Render(FormatPercent(s.ProfitMargin)), " ", r.signed(s.ProfitMargin).Render(bar(math.Min(math.Abs(s.ProfitMargin), 100))))
	r.println(r.label.Render("Best day"), " ", fmt.Sprintf("%s (%s)", s.BestDay.Name, r.Money(s.BestDay.Profit)))
	r.println(r.label.Render("Worst day"), " ", fmt.Sprintf("%s (%s)", s.WorstDay.Name, r.Money(s.WorstDay.Profit)))
	r.println(r.label.Render("Daily avg"), " ", r.positive.Render(r.Money(s.AverageDailyIncome)), " in / ", r.negative.Render(r.Money(s.AverageDailyExpense)), " out")
	r.println()

	r.println(r.title.Render("Daily breakdown"))
	incomeShares := report.Shares(s.Incomes)
	expenseShares := report.Shares(s.Expenses)
	for i, d := range s.Days {
		r.println(
			r.label.Render(d.Name),
			r.moneyCell(d.Income, r.positive),
			r.moneyCell(d.Expense, r.negative),
			r.moneyCell(d.Profit, r.signed(d.Profit)),
			"  ",
			r.positive.Render(bar(incomeShares[i])),
			" ",
			r.muted.Render(fmt.Sprintf("%5.1f%% / %5.1f%%", incomeShares[i], expenseShares[i])),
		)
	}

	if len(s.Extras) > 0 {
		r.println()
		r.Extras(s.Extras)
	}

	if cmp != nil && cmp.HasData {
		r.println()
		r.Comparison(cmp)
	}
}

// Comparison prints week-over-week changes
func (r *Renderer) Comparison(cmp *models.WeekComparison) {
	r.println(r.title.Render("Compared with last archived week"))
	r.println(r.label.Render("Income"), " ", r.signed(cmp.IncomeChange).Render(FormatChange(cmp.IncomeChange)))
	// rising costs are bad news
	r.println(r.label.Render("Expenses"), " ", r.signed(-cmp.ExpensesChange).Render(FormatChange(cmp.ExpensesChange)))
	r.println(r.label.Render("Net profit"), " ", r.signed(cmp.ProfitChange).Render(FormatChange(cmp.ProfitChange)))
	r.println(r.label.Render("Margin"), " ", r.signed(cmp.MarginChange).Render(fmt.Sprintf("%+.2f pp", cmp.MarginChange)))
}

// History prints up to limit archived weeks, newest first. A limit <= 0 prints all.
func (r *Renderer) History(history models.History, limit int) {
	r.println(r.title.Render("History"))
	if len(history) == 0 {
		r.println(r.muted.Render("No archived weeks"))
		return
	}
	if limit > 0 && limit < len(history) {
		history = history[:limit]
	}

	dateWidth := 22
	r.println(r.muted.Width(dateWidth).Render("Archived"), r.headerCell("Income"), r.headerCell("Expense"), r.headerCell("Profit"))
	for _, entry := range history {
		income := entry.TotalIncome()
		expense := entry.TotalExpenses()
		profit := entry.NetProfit(nil)
		r.println(
			r.label.Width(dateWidth).Render(formatDateTime(entry.ArchivedAt())),
			r.moneyCell(income, r.positive),
			r.moneyCell(expense, r.negative),
			r.moneyCell(profit, r.signed(profit)),
		)
	}
}

// Info describes the storage state for the info view
type Info struct {
	Backend   string
	Location  string
	Encrypted bool
	Usage     storage.Usage
	LastSaved time.Time // zero when nothing was saved
	Unsaved   bool
}

// StorageInfo prints storage location, usage and save state
func (r *Renderer) StorageInfo(info Info) {
	r.println(r.title.Render("Storage"))
	r.println(r.label.Render("Backend"), " ", info.Backend)
	if info.Location != "" {
		r.println(r.label.Render("Location"), " ", info.Location)
	}
	if info.Backend == storage.BackendFile {
		enc := "off"
		if info.Encrypted {
			enc = "on"
		}
		r.println(r.label.Render("Encryption"), " ", enc)
	}
	r.println(r.label.Render("Documents"), " ", fmt.Sprint(info.Usage.Documents))
	r.println(r.label.Render("Used"), " ", info.Usage.UsedHuman())
	r.println(r.label.Render("Available"), " ", info.Usage.AvailableHuman())

	saved := "never"
	if !info.LastSaved.IsZero() {
		saved = fmt.Sprintf("%s (%s)", formatDateTime(info.LastSaved), humanize.Time(info.LastSaved))
	}
	r.println(r.label.Render("Last saved"), " ", saved)
	if info.Unsaved {
		r.println(r.muted.Render("Recent changes were saved in the last few minutes"))
	}
}

// bar draws a horizontal bar for a percentage in [0, 100]
func bar(pct float64) string {
	if pct <= 0 {
		return strings.Repeat("░", barWidth)
	}
	filled := int(math.Round(pct / 100 * barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006 3:04 PM")
}
