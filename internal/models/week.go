package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DaysPerWeek is the fixed length of every ledger sequence
const DaysPerWeek = 7

var (
	ErrInvalidAmount = errors.New("amount must be a positive finite number")
	ErrInvalidDay    = errors.New("day must be between 0 (Monday) and 6 (Sunday)")
)

// Day indexes a ledger slot, Monday = 0 through Sunday = 6
type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = [DaysPerWeek]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DayNames returns the ledger day names in index order
func DayNames() [DaysPerWeek]string {
	return dayNames
}

// Valid reports whether d addresses one of the seven ledger slots
func (d Day) Valid() bool {
	return d >= Monday && d <= Sunday
}

func (d Day) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayNames[d]
}

// ParseDay accepts an index (0-6), a full day name or a three-letter abbreviation
func ParseDay(s string) (Day, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		d := Day(n)
		if !d.Valid() {
			return 0, fmt.Errorf("%w: %d", ErrInvalidDay, n)
		}
		return d, nil
	}
	for i, name := range dayNames {
		lower := strings.ToLower(name)
		if s == lower || (len(s) == 3 && strings.HasPrefix(lower, s)) {
			return Day(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDay, s)
}

// ValidateAmount rejects zero, negative, NaN and infinite amounts
func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	return nil
}

// WeekData holds one week of daily income and expense totals
type WeekData struct {
	Incomes   [DaysPerWeek]float64 `json:"incomes"`
	Expenses  [DaysPerWeek]float64 `json:"expenses"`
	WeekStart int64                `json:"weekStart"` // unix millis of the last write
}

// WeekRecord is a decoded week document whose sequences have not been checked yet
type WeekRecord struct {
	Incomes   []float64 `json:"incomes"`
	Expenses  []float64 `json:"expenses"`
	WeekStart int64     `json:"weekStart"`
	SavedAt   int64     `json:"savedAt"`
}

// Week converts the record, requiring exactly seven valid entries per sequence
func (r WeekRecord) Week() (*WeekData, error) {
	if len(r.Incomes) != DaysPerWeek {
		return nil, fmt.Errorf("incomes must have %d entries, got %d", DaysPerWeek, len(r.Incomes))
	}
	if len(r.Expenses) != DaysPerWeek {
		return nil, fmt.Errorf("expenses must have %d entries, got %d", DaysPerWeek, len(r.Expenses))
	}
	week := &WeekData{WeekStart: r.WeekStart}
	copy(week.Incomes[:], r.Incomes)
	copy(week.Expenses[:], r.Expenses)
	if err := week.Validate(); err != nil {
		return nil, err
	}
	return week, nil
}

// NewWeekData returns an empty ledger stamped with now
func NewWeekData(now time.Time) *WeekData {
	return &WeekData{WeekStart: now.UnixMilli()}
}

// Stamp records now as the time of the last write
func (w *WeekData) Stamp(now time.Time) {
	w.WeekStart = now.UnixMilli()
}

// LastWritten returns WeekStart as a time
func (w *WeekData) LastWritten() time.Time {
	return time.UnixMilli(w.WeekStart)
}

// AddIncome accumulates amount into the day's income and returns the new day total
func (w *WeekData) AddIncome(day Day, amount float64) (float64, error) {
	return accumulate(&w.Incomes, day, amount)
}

// AddExpense accumulates amount into the day's expense and returns the new day total
func (w *WeekData) AddExpense(day Day, amount float64) (float64, error) {
	return accumulate(&w.Expenses, day, amount)
}

func accumulate(values *[DaysPerWeek]float64, day Day, amount float64) (float64, error) {
	if !day.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidDay, int(day))
	}
	if err := ValidateAmount(amount); err != nil {
		return 0, err
	}
	values[day] = addAmounts(values[day], amount)
	return values[day], nil
}

// DailyProfit returns income minus expense for one day
func (w *WeekData) DailyProfit(day Day) float64 {
	if !day.Valid() {
		return 0
	}
	return decimal.NewFromFloat(w.Incomes[day]).Sub(decimal.NewFromFloat(w.Expenses[day])).InexactFloat64()
}

// DailyProfits returns the profit of every day in index order
func (w *WeekData) DailyProfits() [DaysPerWeek]float64 {
	var profits [DaysPerWeek]float64
	for i := range profits {
		profits[i] = w.DailyProfit(Day(i))
	}
	return profits
}

// BestDay returns the day with the highest profit; the earliest day wins ties
func (w *WeekData) BestDay() DayResult {
	return w.pickDay(func(candidate, best float64) bool { return candidate > best })
}

// WorstDay returns the day with the lowest profit; the earliest day wins ties
func (w *WeekData) WorstDay() DayResult {
	return w.pickDay(func(candidate, worst float64) bool { return candidate < worst })
}

func (w *WeekData) pickDay(better func(candidate, current float64) bool) DayResult {
	profits := w.DailyProfits()
	idx := 0
	for i := 1; i < DaysPerWeek; i++ {
		if better(profits[i], profits[idx]) {
			idx = i
		}
	}
	return DayResult{Day: Day(idx), Name: dayNames[idx], Profit: profits[idx]}
}

// TotalIncome sums the seven daily incomes
func (w *WeekData) TotalIncome() float64 {
	return sumAmounts(w.Incomes[:])
}

// TotalExpenses sums the seven daily expenses, extras excluded
func (w *WeekData) TotalExpenses() float64 {
	return sumAmounts(w.Expenses[:])
}

// NetProfit is total income minus daily expenses and extras
func (w *WeekData) NetProfit(extras Extras) float64 {
	income := decimal.NewFromFloat(w.TotalIncome())
	spent := decimal.NewFromFloat(w.TotalExpenses()).Add(decimal.NewFromFloat(extras.Total()))
	return income.Sub(spent).InexactFloat64()
}

// IsEmpty reports whether no income or expense has been recorded
func (w *WeekData) IsEmpty() bool {
	for i := 0; i < DaysPerWeek; i++ {
		if w.Incomes[i] != 0 || w.Expenses[i] != 0 {
			return false
		}
	}
	return true
}

// Clone returns an independent copy
func (w *WeekData) Clone() *WeekData {
	c := *w
	return &c
}

// DayResult identifies a single day and its profit
type DayResult struct {
	Day    Day     `json:"index"`
	Name   string  `json:"name"`
	Profit float64 `json:"profit"`
}

func addAmounts(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).InexactFloat64()
}

func sumAmounts(values []float64) float64 {
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	return sum.InexactFloat64()
}

// Validate checks that every recorded amount is finite and non-negative
func (w *WeekData) Validate() error {
	for i := 0; i < DaysPerWeek; i++ {
		if err := validateRecorded(w.Incomes[i]); err != nil {
			return fmt.Errorf("income for %s: %w", Day(i), err)
		}
		if err := validateRecorded(w.Expenses[i]); err != nil {
			return fmt.Errorf("expense for %s: %w", Day(i), err)
		}
	}
	return nil
}

func validateRecorded(v float64) error {
	if v == 0 {
		return nil
	}
	return ValidateAmount(v)
}
