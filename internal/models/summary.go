package models

// DayBreakdown is one row of the per-day report table
type DayBreakdown struct {
	Day     Day     `json:"index"`
	Name    string  `json:"name"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Profit  float64 `json:"profit"`
}

// WeekSummary is the derived report view of a week. It is rebuilt on every request.
type WeekSummary struct {
	Incomes  [DaysPerWeek]float64 `json:"incomes"`
	Expenses [DaysPerWeek]float64 `json:"expenses"`
	Extras   Extras               `json:"extras"`

	TotalIncome        float64 `json:"totalIncome"`
	TotalExpenses      float64 `json:"totalExpenses"` // daily expenses only
	TotalExtras        float64 `json:"totalExtras"`
	GrandTotalExpenses float64 `json:"grandTotalExpenses"`
	NetProfit          float64 `json:"netProfit"`

	BestDay  DayResult `json:"bestDay"`
	WorstDay DayResult `json:"worstDay"`

	IsProfitable bool    `json:"isProfitable"`
	ProfitMargin float64 `json:"profitMargin"` // percent of income, 0 without income

	Days                []DayBreakdown `json:"days"`
	AverageDailyIncome  float64        `json:"averageDailyIncome"`
	AverageDailyExpense float64        `json:"averageDailyExpense"`
}

// WeekComparison compares a summary against an earlier week
type WeekComparison struct {
	Current  *WeekSummary `json:"current"`
	Previous *WeekSummary `json:"previous"`
	HasData  bool         `json:"hasData"`

	IncomeChange   float64 `json:"incomeChangePct"`
	ExpensesChange float64 `json:"expensesChangePct"`
	ProfitChange   float64 `json:"profitChangePct"`
	MarginChange   float64 `json:"marginChangePp"` // percentage points
}
