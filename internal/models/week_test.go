package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddIncomeOnlyTouchesOneDay(t *testing.T) {
	for day := Monday; day <= Sunday; day++ {
		w := NewWeekData(time.Now())
		w.Incomes = [DaysPerWeek]float64{1, 2, 3, 4, 5, 6, 7}
		before := w.Incomes

		total, err := w.AddIncome(day, 12.5)
		require.NoError(t, err)
		assert.Equal(t, before[day]+12.5, total)

		for i := 0; i < DaysPerWeek; i++ {
			if Day(i) == day {
				assert.Equal(t, before[i]+12.5, w.Incomes[i])
				continue
			}
			assert.Equal(t, before[i], w.Incomes[i], "day %d changed", i)
		}
		assert.Equal(t, [DaysPerWeek]float64{}, w.Expenses)
	}
}

func TestAddExpenseAccumulates(t *testing.T) {
	w := NewWeekData(time.Now())

	_, err := w.AddExpense(Friday, 10)
	require.NoError(t, err)
	total, err := w.AddExpense(Friday, 5.25)
	require.NoError(t, err)

	assert.Equal(t, 15.25, total)
	assert.Equal(t, 15.25, w.Expenses[Friday])
}

func TestAccumulateAvoidsFloatDrift(t *testing.T) {
	w := NewWeekData(time.Now())
	_, err := w.AddIncome(Monday, 0.1)
	require.NoError(t, err)
	total, err := w.AddIncome(Monday, 0.2)
	require.NoError(t, err)
	assert.Equal(t, 0.3, total)
}

func TestAddRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		day     Day
		amount  float64
		wantErr error
	}{
		{"zero", Monday, 0, ErrInvalidAmount},
		{"negative", Monday, -5, ErrInvalidAmount},
		{"nan", Monday, math.NaN(), ErrInvalidAmount},
		{"infinite", Monday, math.Inf(1), ErrInvalidAmount},
		{"day too low", Day(-1), 5, ErrInvalidDay},
		{"day too high", Day(7), 5, ErrInvalidDay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWeekData(time.Now())
			_, err := w.AddIncome(tt.day, tt.amount)
			assert.ErrorIs(t, err, tt.wantErr)
			_, err = w.AddExpense(tt.day, tt.amount)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, w.IsEmpty())
		})
	}
}

func TestBestAndWorstDay(t *testing.T) {
	w := &WeekData{
		Incomes:  [DaysPerWeek]float64{100, 0, 0, 0, 0, 0, 0},
		Expenses: [DaysPerWeek]float64{20, 0, 0, 0, 0, 0, 0},
	}

	best := w.BestDay()
	assert.Equal(t, Monday, best.Day)
	assert.Equal(t, "Monday", best.Name)
	assert.Equal(t, 80.0, best.Profit)

	worst := w.WorstDay()
	assert.Equal(t, Tuesday, worst.Day, "first zero-profit day wins the tie")
	assert.Equal(t, 0.0, worst.Profit)
}

func TestBestDayTieBreakIsFirstIndex(t *testing.T) {
	w := &WeekData{
		Incomes:  [DaysPerWeek]float64{0, 0, 50, 0, 50, 0, 0},
		Expenses: [DaysPerWeek]float64{10, 0, 0, 0, 0, 0, 10},
	}
	assert.Equal(t, Wednesday, w.BestDay().Day)
	assert.Equal(t, Monday, w.WorstDay().Day)

	empty := NewWeekData(time.Now())
	assert.Equal(t, Monday, empty.BestDay().Day)
	assert.Equal(t, Monday, empty.WorstDay().Day)
}

func TestNetProfitIdentity(t *testing.T) {
	w := NewWeekData(time.Now())
	extras := NewExtras()

	ops := []func() error{
		func() error { _, err := w.AddIncome(Monday, 120.40); return err },
		func() error { _, err := w.AddExpense(Monday, 33.10); return err },
		func() error { _, err := extras.Add("rent", 50); return err },
		func() error { _, err := w.AddIncome(Saturday, 9.99); return err },
		func() error { _, err := extras.Add("rent", 0.01); return err },
		func() error { _, err := w.AddExpense(Sunday, 200); return err },
	}
	for _, op := range ops {
		require.NoError(t, op())
		want := w.TotalIncome() - w.TotalExpenses() - extras.Total()
		assert.InDelta(t, want, w.NetProfit(extras), 1e-9)
	}
}

func TestTotals(t *testing.T) {
	w := &WeekData{
		Incomes:  [DaysPerWeek]float64{1, 2, 3, 4, 5, 6, 7},
		Expenses: [DaysPerWeek]float64{0.5, 0, 0, 0, 0, 0, 0.5},
	}
	assert.Equal(t, 28.0, w.TotalIncome())
	assert.Equal(t, 1.0, w.TotalExpenses())
	assert.Equal(t, [DaysPerWeek]float64{0.5, 2, 3, 4, 5, 6, 6.5}, w.DailyProfits())
}

func TestCloneIsIndependent(t *testing.T) {
	w := NewWeekData(time.Now())
	c := w.Clone()
	_, err := w.AddIncome(Monday, 10)
	require.NoError(t, err)
	assert.Equal(t, 0.0, c.Incomes[Monday])
}

func TestParseDay(t *testing.T) {
	tests := []struct {
		in   string
		want Day
	}{
		{"0", Monday},
		{"6", Sunday},
		{"monday", Monday},
		{"Wed", Wednesday},
		{" FRIDAY ", Friday},
		{"sun", Sunday},
	}
	for _, tt := range tests {
		got, err := ParseDay(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"7", "-1", "someday", "", "mo"} {
		_, err := ParseDay(bad)
		assert.ErrorIs(t, err, ErrInvalidDay, bad)
	}
}

func TestWeekDataValidate(t *testing.T) {
	w := NewWeekData(time.Now())
	assert.NoError(t, w.Validate())

	w.Expenses[Thursday] = -3
	assert.ErrorIs(t, w.Validate(), ErrInvalidAmount)
}

func TestWeekRecord(t *testing.T) {
	seven := []float64{1, 0, 0, 0, 0, 0, 2}

	week, err := WeekRecord{Incomes: seven, Expenses: seven, WeekStart: 42}.Week()
	require.NoError(t, err)
	assert.Equal(t, 2.0, week.Incomes[Sunday])
	assert.Equal(t, int64(42), week.WeekStart)

	_, err = WeekRecord{Incomes: seven[:3], Expenses: seven}.Week()
	assert.ErrorContains(t, err, "incomes must have 7 entries, got 3")

	_, err = WeekRecord{Incomes: seven, Expenses: append(seven, 9)}.Week()
	assert.ErrorContains(t, err, "expenses must have 7 entries, got 8")

	_, err = WeekRecord{Incomes: seven, Expenses: []float64{-1, 0, 0, 0, 0, 0, 0}}.Week()
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
