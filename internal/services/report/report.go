// Package report derives summaries and comparisons from ledger snapshots.
// Every function here is pure.
package report

import (
	"math"

	"github.com/shopspring/decimal"

	"fintrack/internal/models"
)

// BuildSummary computes the report view of week plus extras
func BuildSummary(week *models.WeekData, extras models.Extras) *models.WeekSummary {
	if week == nil {
		week = &models.WeekData{}
	}

	totalIncome := week.TotalIncome()
	totalExpenses := week.TotalExpenses()
	totalExtras := extras.Total()
	grand := decimal.NewFromFloat(totalExpenses).Add(decimal.NewFromFloat(totalExtras))
	net := week.NetProfit(extras)

	var margin float64
	if totalIncome > 0 {
		margin = net / totalIncome * 100
	}

	names := models.DayNames()
	days := make([]models.DayBreakdown, models.DaysPerWeek)
	for i := range days {
		d := models.Day(i)
		days[i] = models.DayBreakdown{
			Day:     d,
			Name:    names[i],
			Income:  week.Incomes[i],
			Expense: week.Expenses[i],
			Profit:  week.DailyProfit(d),
		}
	}

	return &models.WeekSummary{
		Incomes:             week.Incomes,
		Expenses:            week.Expenses,
		Extras:              extras.Clone(),
		TotalIncome:         totalIncome,
		TotalExpenses:       totalExpenses,
		TotalExtras:         totalExtras,
		GrandTotalExpenses:  grand.InexactFloat64(),
		NetProfit:           net,
		BestDay:             week.BestDay(),
		WorstDay:            week.WorstDay(),
		IsProfitable:        net >= 0,
		ProfitMargin:        margin,
		Days:                days,
		AverageDailyIncome:  average(totalIncome),
		AverageDailyExpense: average(totalExpenses),
	}
}

func average(total float64) float64 {
	return decimal.NewFromFloat(total).Div(decimal.NewFromInt(models.DaysPerWeek)).InexactFloat64()
}

// Compare computes week-over-week changes. A nil previous yields a comparison without data.
func Compare(current, previous *models.WeekSummary) *models.WeekComparison {
	if current == nil || previous == nil {
		return &models.WeekComparison{Current: current, HasData: false}
	}
	return &models.WeekComparison{
		Current:        current,
		Previous:       previous,
		HasData:        true,
		IncomeChange:   PercentChange(current.TotalIncome, previous.TotalIncome),
		ExpensesChange: PercentChange(current.GrandTotalExpenses, previous.GrandTotalExpenses),
		ProfitChange:   PercentChange(current.NetProfit, previous.NetProfit),
		MarginChange:   current.ProfitMargin - previous.ProfitMargin,
	}
}

// PercentChange calculates the percentage change between two values
func PercentChange(current, previous float64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return ((current - previous) / math.Abs(previous)) * 100
}

// Shares returns each day's percentage of the seven-day total
func Shares(values [models.DaysPerWeek]float64) [models.DaysPerWeek]float64 {
	var shares [models.DaysPerWeek]float64
	total := 0.0
	for _, v := range values {
		total += v
	}
	if total <= 0 {
		return shares
	}
	for i, v := range values {
		shares[i] = v / total * 100
	}
	return shares
}
