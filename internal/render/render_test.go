package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/models"
	"fintrack/internal/services/report"
	"fintrack/internal/services/storage"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		currency string
		value    float64
		want     string
	}{
		{"€", 0, "€0.00"},
		{"€", 70, "€70.00"},
		{"$", 1234567.891, "$1,234,567.89"},
		{"£", -42.5, "-£42.50"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMoney(tt.currency, tt.value))
		})
	}
}

func TestFormatPercentAndChange(t *testing.T) {
	assert.Equal(t, "70.00%", FormatPercent(70))
	assert.Equal(t, "+12.5%", FormatChange(12.5))
	assert.Equal(t, "-3.0%", FormatChange(-3))
	assert.Equal(t, "0.0%", FormatChange(0))
}

func TestBar(t *testing.T) {
	assert.Equal(t, strings.Repeat("░", barWidth), bar(0))
	assert.Equal(t, strings.Repeat("█", barWidth), bar(100))
	assert.Equal(t, strings.Repeat("█", barWidth/2)+strings.Repeat("░", barWidth/2), bar(50))
}

func sampleWeek(t *testing.T) (*models.WeekData, models.Extras) {
	t.Helper()
	week := models.NewWeekData(time.Date(2025, 1, 6, 10, 0, 0, 0, time.Local))
	_, err := week.AddIncome(models.Monday, 100)
	require.NoError(t, err)
	_, err = week.AddExpense(models.Monday, 20)
	require.NoError(t, err)
	extras := models.NewExtras()
	_, err = extras.Add("gift", 10)
	require.NoError(t, err)
	return week, extras
}

func TestWeekView(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, models.DefaultSettings())
	week, _ := sampleWeek(t)

	r.Week(week)
	out := buf.String()

	for _, name := range models.DayNames() {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "€100.00")
	assert.Contains(t, out, "€80.00")
	assert.Contains(t, out, "Last updated Jan 6, 2025")
	assert.NotContains(t, out, "\x1b[", "no escape codes when writing to a buffer")
}

func TestExtrasView(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, models.Settings{Currency: "$", Theme: models.ThemeDark})

	r.Extras(models.NewExtras())
	assert.Contains(t, buf.String(), "No extra expenses recorded")

	buf.Reset()
	extras := models.Extras{"a very long reason for spending": 5, "fuel": 2.5}
	r.Extras(extras)
	out := buf.String()
	assert.Contains(t, out, "a very long reason for spending")
	assert.Contains(t, out, "$2.50")
	assert.Contains(t, out, "$7.50")
	assert.Less(t, strings.Index(out, "a very long"), strings.Index(out, "fuel"), "reasons are sorted")
}

func TestSummaryView(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, models.DefaultSettings())
	week, extras := sampleWeek(t)
	summary := report.BuildSummary(week, extras)

	prev := report.BuildSummary(&models.WeekData{Incomes: [7]float64{50}}, nil)
	r.Summary(summary, report.Compare(summary, prev))
	out := buf.String()

	assert.Contains(t, out, "Weekly report")
	assert.Contains(t, out, "€70.00")
	assert.Contains(t, out, "70.00%")
	assert.Contains(t, out, "Profitable")
	assert.Contains(t, out, "Monday (€80.00)")
	assert.Contains(t, out, "Tuesday (€0.00)")
	assert.Contains(t, out, "gift")
	assert.Contains(t, out, "Compared with last archived week")
	assert.Contains(t, out, "+100.0%")
}

func TestSummaryViewLoss(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, models.DefaultSettings())
	summary := report.BuildSummary(&models.WeekData{Expenses: [7]float64{0, 0, 5}}, nil)

	r.Summary(summary, nil)
	out := buf.String()
	assert.Contains(t, out, "Loss")
	assert.Contains(t, out, "-€5.00")
	assert.NotContains(t, out, "Compared with")
}

func TestHistoryView(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, models.DefaultSettings())

	r.History(nil, 0)
	assert.Contains(t, buf.String(), "No archived weeks")

	var history models.History
	for i := 1; i <= 3; i++ {
		history.Archive(&models.WeekData{Incomes: [7]float64{float64(i * 10)}}, time.Date(2025, 1, i, 12, 0, 0, 0, time.Local))
	}

	buf.Reset()
	r.History(history, 2)
	out := buf.String()
	assert.Contains(t, out, "€30.00")
	assert.Contains(t, out, "€20.00")
	assert.NotContains(t, out, "€10.00")
}

func TestStorageInfoView(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, models.DefaultSettings())

	r.StorageInfo(Info{
		Backend:   storage.BackendFile,
		Location:  "/tmp/fintrack",
		Encrypted: true,
		Usage:     storage.Usage{Documents: 2, Used: 2048, Quota: storage.DefaultQuota},
	})
	out := buf.String()
	assert.Contains(t, out, "/tmp/fintrack")
	assert.Contains(t, out, "Encryption")
	assert.Contains(t, out, "2.0 KiB")
	assert.Contains(t, out, "never")
}
